// Package cli provides the interactive voiceroll command-line client.
//
// It wires configuration, the local credential store, the attendance API
// client, and the flow controller into an interactive REPL. Typical flow:
// log in, scan a session code, record the challenge word, submit.
//
// Key commands:
//   - login / logout / whoami
//   - scan <code> — join an attendance session
//   - record / stop / submit — capture and send the voice sample
//   - cancel / status / health
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
