package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubExec records which commands the REPL dispatched.
type stubExec struct {
	unlocked     bool
	expiringSoon bool
	extendCalls  int
	calls        []string
}

func (s *stubExec) record(name string) error {
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubExec) isUnlocked() bool          { return s.unlocked }
func (s *stubExec) sessionExpiringSoon() bool { return s.expiringSoon }
func (s *stubExec) extendSession()            { s.extendCalls++ }
func (s *stubExec) Register(ctx context.Context) error          { return s.record("register") }
func (s *stubExec) Login(ctx context.Context) error             { return s.record("login") }
func (s *stubExec) Setup(ctx context.Context) error             { return s.record("setup") }
func (s *stubExec) Unlock(ctx context.Context) error            { return s.record("unlock") }
func (s *stubExec) UnlockPassphrase(ctx context.Context) error  { return s.record("unlockpass") }
func (s *stubExec) LockSession(ctx context.Context) error       { return s.record("lock") }
func (s *stubExec) Enroll(ctx context.Context) error            { return s.record("enroll") }
func (s *stubExec) Revoke(ctx context.Context) error            { return s.record("revoke") }
func (s *stubExec) AddContact(ctx context.Context) error        { return s.record("addcontact") }
func (s *stubExec) AddTask(ctx context.Context) error           { return s.record("addtask") }
func (s *stubExec) AddLabel(ctx context.Context) error          { return s.record("addlabel") }
func (s *stubExec) List(ctx context.Context) error              { return s.record("list") }
func (s *stubExec) Show(ctx context.Context) error              { return s.record("show") }
func (s *stubExec) Delete(ctx context.Context) error            { return s.record("delete") }
func (s *stubExec) Sync(ctx context.Context) error              { return s.record("sync") }
func (s *stubExec) Attach(ctx context.Context) error            { return s.record("attach") }
func (s *stubExec) Fetch(ctx context.Context) error             { return s.record("fetch") }
func (s *stubExec) Logout(ctx context.Context) error            { return s.record("logout") }

func runWithInput(t *testing.T, exec *stubExec, input string) []string {
	t.Helper()

	var out []string
	origPrintln := printlnFn
	printlnFn = func(a ...any) (int, error) {
		for _, v := range a {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrintln })

	scanner := bufio.NewScanner(strings.NewReader(input))
	runREPL(context.Background(), exec, func() string { return "test" }, scanner)
	return out
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	exec := &stubExec{unlocked: true}
	runWithInput(t, exec, "addcontact\nlist\nshow\nsync\nlock\nexit\n")

	assert.Equal(t, []string{"addcontact", "list", "show", "sync", "lock"}, exec.calls)
}

func TestRunREPL_ShortListAlias(t *testing.T) {
	exec := &stubExec{unlocked: true}
	runWithInput(t, exec, "l\nquit\n")

	assert.Equal(t, []string{"list"}, exec.calls)
}

func TestRunREPL_UnknownCommandReported(t *testing.T) {
	exec := &stubExec{}
	out := runWithInput(t, exec, "frobnicate\nexit\n")

	assert.Empty(t, exec.calls)
	assert.Contains(t, out, "Unknown command:")
}

func TestRunREPL_HelpDependsOnSessionState(t *testing.T) {
	locked := &stubExec{unlocked: false}
	outLocked := runWithInput(t, locked, "help\nexit\n")

	found := false
	for _, line := range outLocked {
		if strings.Contains(line, "unlock") {
			found = true
		}
	}
	assert.True(t, found, "locked help must mention unlock")

	unlocked := &stubExec{unlocked: true}
	outUnlocked := runWithInput(t, unlocked, "help\nexit\n")

	found = false
	for _, line := range outUnlocked {
		if strings.Contains(line, "addcontact") {
			found = true
		}
	}
	assert.True(t, found, "unlocked help must list record commands")
}

func TestRunREPL_ExpiringSessionExtendedOnActivity(t *testing.T) {
	exec := &stubExec{unlocked: true, expiringSoon: true}
	out := runWithInput(t, exec, "list\nexit\n")

	assert.Equal(t, []string{"list"}, exec.calls)
	assert.Equal(t, 2, exec.extendCalls, "each typed command extends the session")

	warned := false
	for _, line := range out {
		if strings.Contains(line, "expiring soon") {
			warned = true
		}
	}
	assert.True(t, warned, "user must be told the session was about to lock")
}

func TestRunREPL_NoWarningWhenSessionHealthy(t *testing.T) {
	exec := &stubExec{unlocked: true}
	out := runWithInput(t, exec, "list\nexit\n")

	assert.Zero(t, exec.extendCalls)
	for _, line := range out {
		assert.NotContains(t, line, "expiring soon")
	}
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	exec := &stubExec{}
	runWithInput(t, exec, "")

	assert.Empty(t, exec.calls)
}

func TestRunREPL_EmptyLinesIgnored(t *testing.T) {
	exec := &stubExec{unlocked: true}
	runWithInput(t, exec, "\n\nlist\n\nexit\n")

	assert.Equal(t, []string{"list"}, exec.calls)
}
