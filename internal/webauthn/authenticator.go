package webauthn

import "context"

// Authenticator drives WebAuthn ceremonies with a PRF extension input.
// Ceremonies are user-interactive: they may block for an unbounded time and
// the user can walk away, which surfaces as OutcomeCancelled rather than an
// error. Implementations must honor ctx cancellation.
//
// The production implementation bridges to the platform credential API;
// tests and the CLI demo use SoftAuthenticator.
type Authenticator interface {
	// Register runs a credential-creation ceremony evaluating the PRF
	// extension over prfSalt. Returns the new credential id and the
	// ceremony result.
	Register(ctx context.Context, userID string, prfSalt []byte) (credentialID string, res CeremonyResult, err error)

	// Assert runs an assertion ceremony for an existing credential,
	// evaluating the PRF extension over prfSalt.
	Assert(ctx context.Context, credentialID string, prfSalt []byte) (CeremonyResult, error)
}
