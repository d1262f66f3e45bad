// Package cli implements the interactive CipherDesk client: a small REPL
// over the passkey, record and attachment services. Plaintext exists only
// inside this process; everything sent to the server is encrypted under
// the session's master key.
package cli
