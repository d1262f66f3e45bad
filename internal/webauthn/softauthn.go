package webauthn

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"sync"

	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// SoftAuthenticator is a deterministic software authenticator. Each
// credential holds a random secret and evaluates the PRF extension the way
// CTAP hmac-secret does: HMAC-SHA256(credentialSecret, SHA256(salt)).
// The same credential and salt therefore always produce the same output,
// which is the property the key deriver depends on.
//
// It exchanges extension payloads through their CBOR encoding, like a real
// authenticator transport, so the extension structs stay honest.
//
// Safe for concurrent use.
type SoftAuthenticator struct {
	mu      sync.Mutex
	secrets map[string][]byte

	// PRFDisabled makes every ceremony complete without PRF output,
	// emulating older hardware.
	PRFDisabled bool

	// CancelNext makes the next ceremony end as user-cancelled.
	CancelNext bool
}

func NewSoftAuthenticator() *SoftAuthenticator {
	return &SoftAuthenticator{secrets: make(map[string][]byte)}
}

func (a *SoftAuthenticator) Register(ctx context.Context, userID string, prfSalt []byte) (string, CeremonyResult, error) {
	if err := ctx.Err(); err != nil {
		return "", CeremonyResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.CancelNext {
		a.CancelNext = false
		return "", CeremonyResult{Outcome: OutcomeCancelled}, nil
	}

	credentialID := uuid.NewString()
	a.secrets[credentialID] = common.GenerateRandByteArray(32)

	res, err := a.evaluate(credentialID, prfSalt)
	if err != nil {
		return "", CeremonyResult{}, err
	}
	return credentialID, res, nil
}

func (a *SoftAuthenticator) Assert(ctx context.Context, credentialID string, prfSalt []byte) (CeremonyResult, error) {
	if err := ctx.Err(); err != nil {
		return CeremonyResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.CancelNext {
		a.CancelNext = false
		return CeremonyResult{Outcome: OutcomeCancelled}, nil
	}

	if _, ok := a.secrets[credentialID]; !ok {
		// unknown credential: the platform would refuse the assertion
		return CeremonyResult{Outcome: OutcomeCancelled}, nil
	}

	return a.evaluate(credentialID, prfSalt)
}

// evaluate round-trips the PRF extension input through CBOR and computes
// the hmac-secret style evaluation. Caller holds the mutex.
func (a *SoftAuthenticator) evaluate(credentialID string, prfSalt []byte) (CeremonyResult, error) {
	if a.PRFDisabled {
		return CeremonyResult{Outcome: OutcomePRFUnsupported}, nil
	}

	inputs := AuthenticationExtensionsPRFInputs{
		Eval: &AuthenticationExtensionsPRFValues{First: prfSalt},
	}
	encoded, err := cbor.Marshal(inputs)
	if err != nil {
		return CeremonyResult{}, err
	}
	var decoded AuthenticationExtensionsPRFInputs
	if err := cbor.Unmarshal(encoded, &decoded); err != nil {
		return CeremonyResult{}, err
	}

	salted := sha256.Sum256(decoded.Eval.First)
	mac := hmac.New(sha256.New, a.secrets[credentialID])
	mac.Write(salted[:])

	outputs := AuthenticationExtensionsPRFOutputs{
		Enabled: true,
		Results: AuthenticationExtensionsPRFValues{First: mac.Sum(nil)},
	}
	encoded, err = cbor.Marshal(outputs)
	if err != nil {
		return CeremonyResult{}, err
	}
	var out AuthenticationExtensionsPRFOutputs
	if err := cbor.Unmarshal(encoded, &out); err != nil {
		return CeremonyResult{}, err
	}

	return CeremonyResult{Outcome: OutcomeOK, PRFOutput: out.Results.First}, nil
}
