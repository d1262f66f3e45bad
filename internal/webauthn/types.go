// Package webauthn models the boundary between CipherDesk and a
// WebAuthn-capable credential API. Only the pieces the encryption core
// needs are covered: the PRF client extension and a tagged ceremony result,
// so the opaque authenticator output never propagates inward untyped.
package webauthn

// AuthenticationExtensionsPRFValues carries the salt values for the PRF
// extension. Serialized with CBOR on the authenticator transport.
type AuthenticationExtensionsPRFValues struct {
	First  []byte `cbor:"first"`
	Second []byte `cbor:"second,omitempty"`
}

// AuthenticationExtensionsPRFInputs is the client-side input of the PRF
// extension: either a global eval or per-credential salts.
type AuthenticationExtensionsPRFInputs struct {
	Eval             *AuthenticationExtensionsPRFValues           `cbor:"eval,omitempty"`
	EvalByCredential map[string]AuthenticationExtensionsPRFValues `cbor:"evalByCredential,omitempty"`
}

// AuthenticationExtensionsPRFOutputs is what the authenticator returns for
// the PRF extension after a ceremony.
type AuthenticationExtensionsPRFOutputs struct {
	Enabled bool                              `cbor:"enabled"`
	Results AuthenticationExtensionsPRFValues `cbor:"results"`
}

// PRFKeyParams are the per-credential parameters needed to reproduce a PRF
// evaluation: the salt and the owning credential id. Persisted alongside
// the credential record; immutable once created.
type PRFKeyParams struct {
	CredentialID string `json:"credential_id"`
	Salt         []byte `json:"salt"`
}

// CeremonyOutcome classifies how a ceremony ended.
type CeremonyOutcome int

const (
	// OutcomeOK: the ceremony completed and PRF output is available.
	OutcomeOK CeremonyOutcome = iota
	// OutcomeCancelled: the user or browser aborted the ceremony. Cheap to
	// handle; surfaced as a boolean failure, never as an error.
	OutcomeCancelled
	// OutcomePRFUnsupported: the authenticator completed the ceremony but
	// produced no PRF output (older hardware, missing browser extension).
	OutcomePRFUnsupported
)

// CeremonyResult is the tagged result of a register/assert ceremony.
// PRFOutput is set only when Outcome == OutcomeOK.
type CeremonyResult struct {
	Outcome   CeremonyOutcome
	PRFOutput []byte
}

func (r CeremonyResult) OK() bool          { return r.Outcome == OutcomeOK }
func (r CeremonyResult) Cancelled() bool   { return r.Outcome == OutcomeCancelled }
func (r CeremonyResult) Unsupported() bool { return r.Outcome == OutcomePRFUnsupported }
