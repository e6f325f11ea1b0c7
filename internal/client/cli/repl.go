package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Scan(ctx context.Context, code string) error
	Record(ctx context.Context) error
	Stop(ctx context.Context) error
	Submit(ctx context.Context) error
	CancelSession(ctx context.Context) error
	Status(ctx context.Context) error
	History(ctx context.Context) error
	Health(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the voiceroll CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - login          — authenticate
//	  - health         — probe service availability
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - help           — show available commands
//	  - scan [code]    — join a session; without a code the payload is
//	                     read from the configured scan file
//	  - record         — start capturing the voice sample
//	  - stop           — finish the capture
//	  - submit         — send the sample for verification
//	  - cancel         — abandon the joined session
//	  - status         — show flow state
//	  - history        — list past attendance records
//	  - whoami         — show the authenticated principal
//	  - logout         — log out
//	  - health         — probe service availability
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// report their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("vr> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: scan, record, stop, submit, cancel, status, history, whoami, logout, health, exit")
			} else {
				printlnFn("Available commands: login, health, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "scan":
			_ = a.Scan(ctx, strings.Join(args, " "))

		case "record":
			_ = a.Record(ctx)

		case "stop":
			_ = a.Stop(ctx)

		case "submit":
			_ = a.Submit(ctx)

		case "cancel":
			_ = a.CancelSession(ctx)

		case "status":
			_ = a.Status(ctx)

		case "history":
			_ = a.History(ctx)

		case "health":
			_ = a.Health(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
