// Package api implements the resilient request layer for the attendance
// service: verb-style calls over HTTP with token attachment, a
// refresh-on-expiry policy, bounded retry with linear backoff for transient
// failures, and normalization of every terminal failure into a single Error
// shape. Typed domain operations (Login, JoinSession, MarkAttendance, ...)
// are layered on the verbs.
package api
