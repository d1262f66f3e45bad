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
	isUnlocked() bool
	sessionExpiringSoon() bool
	extendSession()
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Setup(ctx context.Context) error
	Unlock(ctx context.Context) error
	UnlockPassphrase(ctx context.Context) error
	LockSession(ctx context.Context) error
	Enroll(ctx context.Context) error
	Revoke(ctx context.Context) error
	AddContact(ctx context.Context) error
	AddTask(ctx context.Context) error
	AddLabel(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context) error
	Delete(ctx context.Context) error
	Sync(ctx context.Context) error
	Attach(ctx context.Context) error
	Fetch(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Command handlers log their own errors; the loop ignores the returned
// values to stay resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("cd %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		// Typing a command counts as activity; extending here keeps the
		// idle window sliding so the session does not lock mid-task.
		if a.sessionExpiringSoon() {
			a.extendSession()
			printlnFn("Session expiring soon; extended on activity. Near the absolute age cap, re-unlock with 'unlock'.")
		}

		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn("Available commands: addcontact, addtask, addlabel, (l)ist, show, delete, attach, fetch, sync, enroll, revoke, lock, logout, exit")
			} else {
				printlnFn("Available commands: register, login, setup, unlock, unlockpass, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "setup":
			_ = a.Setup(ctx)

		case "unlock":
			_ = a.Unlock(ctx)

		case "unlockpass":
			_ = a.UnlockPassphrase(ctx)

		case "lock":
			_ = a.LockSession(ctx)

		case "enroll":
			_ = a.Enroll(ctx)

		case "revoke":
			_ = a.Revoke(ctx)

		case "addcontact":
			_ = a.AddContact(ctx)

		case "addtask":
			_ = a.AddTask(ctx)

		case "addlabel":
			_ = a.AddLabel(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "show":
			_ = a.Show(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "attach":
			_ = a.Attach(ctx)

		case "fetch":
			_ = a.Fetch(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
