// Package devstub is an in-memory stand-in for the attendance service. It
// implements the auth and student endpoints the client talks to, with
// deterministic voice verification, so local development and end-to-end
// tests can run against a live HTTP surface without the real backend.
//
// State lives in process memory and is seeded through AddAdmin, AddStudent
// and CreateSession. Nothing survives a restart.
package devstub
