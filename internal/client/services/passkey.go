// Package services contains the application services of the CipherDesk
// client: passkey registration/unlock flows, encrypted record CRUD, and
// attachment handling. This file orchestrates WebAuthn ceremonies, KEK
// derivation, key wrapping and the encryption session.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cipherdesk/cipherdesk/internal/client/client"
	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/cryptox"
	"github.com/cipherdesk/cipherdesk/internal/logging"
	"github.com/cipherdesk/cipherdesk/internal/session"
	"github.com/cipherdesk/cipherdesk/internal/webauthn"
)

// passphraseCredentialPrefix marks keyring entries enrolled through the
// fallback path for authenticators without PRF support.
const passphraseCredentialPrefix = "passphrase:"

// PasskeyService orchestrates credential ceremonies against the keyring.
//
// Contract:
//   - RegisterFirstPasskey: create the account's master key and its first
//     WrappedKey. Only valid while no passkey is enrolled yet.
//   - EnrollAdditionalPasskey: add a WrappedKey for a new credential.
//     Requires an unlocked session; there is deliberately no way to derive
//     the master key from an existing wrapped entry (no offline
//     key-wrapping oracle).
//   - UnlockWithPasskey: ceremony + unwrap + session transition.
//   - RevokePasskey: delete a credential's WrappedKey and PRF params.
//
// All methods honor context cancellation.
type PasskeyService struct {
	store   client.Client
	authn   webauthn.Authenticator
	session *session.Session
	logger  logging.Logger
}

func NewPasskeyService(store client.Client, authn webauthn.Authenticator, sess *session.Session, logger logging.Logger) *PasskeyService {
	return &PasskeyService{store: store, authn: authn, session: sess, logger: logger}
}

// RegisterResult reports a registration/enrollment outcome. OK is false
// when the user cancelled the ceremony — not an error, just "changed my
// mind".
type RegisterResult struct {
	CredentialID string
	OK           bool
}

// RegisterFirstPasskey runs the initial enrollment: ceremony → PRF → KEK →
// generate master key → wrap → persist. Registration is complete only
// after both the PRF params and the WrappedKey are durably persisted and
// confirmed; only then is the session unlocked with the new key, so a
// persistence failure can never leave an unlocked session believing a
// passkey is enrolled when it is not.
//
// Fails with common.ErrorAlreadyExists when the account already has
// enrolled credentials, and with common.ErrPRFUnsupported when the
// authenticator cannot produce PRF output (callers fall back to
// EnrollPassphrase).
func (s *PasskeyService) RegisterFirstPasskey(ctx context.Context, userID string) (RegisterResult, error) {
	existing, err := s.store.ListWrappedKeys(ctx)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("keyring list error: %w", err)
	}
	if len(existing) > 0 {
		return RegisterResult{}, common.ErrorAlreadyExists
	}

	salt := cryptox.GeneratePRFSalt()

	credentialID, res, err := s.authn.Register(ctx, userID, salt)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("ceremony error: %w", err)
	}
	if res.Cancelled() {
		return RegisterResult{OK: false}, nil
	}
	if res.Unsupported() {
		return RegisterResult{}, common.ErrPRFUnsupported
	}

	kek, err := cryptox.DeriveKEKFromPRF(res.PRFOutput)
	if err != nil {
		return RegisterResult{}, err
	}
	defer common.WipeByteArray(kek)

	masterKey := cryptox.GenerateMasterKey()

	if err := s.persistEnrollment(ctx, credentialID, salt, masterKey, kek); err != nil {
		common.WipeByteArray(masterKey)
		return RegisterResult{}, err
	}

	// enrollment is durable; install the key
	ok, err := s.session.Unlock(ctx, func(context.Context) ([]byte, bool, error) {
		return masterKey, true, nil
	})
	if err != nil || !ok {
		common.WipeByteArray(masterKey)
		return RegisterResult{}, fmt.Errorf("session install error: %w", err)
	}

	s.logger.Info(ctx, "first passkey registered", "credential_id", credentialID)
	return RegisterResult{CredentialID: credentialID, OK: true}, nil
}

// EnrollAdditionalPasskey wraps the currently resident master key under a
// new credential's KEK. Fails with common.ErrSessionLocked while locked:
// enrolling passkey N+1 is only possible during an unlocked session. The
// key copy is captured before the ceremony, so a concurrent Lock() cannot
// tear it out from under the enrollment write.
func (s *PasskeyService) EnrollAdditionalPasskey(ctx context.Context, userID string) (RegisterResult, error) {
	masterKey, err := s.session.MasterKey()
	if err != nil {
		return RegisterResult{}, err
	}
	defer common.WipeByteArray(masterKey)

	salt := cryptox.GeneratePRFSalt()

	credentialID, res, err := s.authn.Register(ctx, userID, salt)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("ceremony error: %w", err)
	}
	if res.Cancelled() {
		return RegisterResult{OK: false}, nil
	}
	if res.Unsupported() {
		return RegisterResult{}, common.ErrPRFUnsupported
	}

	kek, err := cryptox.DeriveKEKFromPRF(res.PRFOutput)
	if err != nil {
		return RegisterResult{}, err
	}
	defer common.WipeByteArray(kek)

	if err := s.persistEnrollment(ctx, credentialID, salt, masterKey, kek); err != nil {
		return RegisterResult{}, err
	}

	s.logger.Info(ctx, "additional passkey enrolled", "credential_id", credentialID)
	return RegisterResult{CredentialID: credentialID, OK: true}, nil
}

// EnrollPassphrase is the fallback enrollment path for authenticators
// without PRF support: the KEK is derived from a passphrase with argon2id
// instead of a ceremony. Requires an unlocked session unless it is the
// account's very first enrollment.
func (s *PasskeyService) EnrollPassphrase(ctx context.Context, passphrase []byte) (RegisterResult, error) {
	existing, err := s.store.ListWrappedKeys(ctx)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("keyring list error: %w", err)
	}

	var masterKey []byte
	first := len(existing) == 0
	if first {
		masterKey = cryptox.GenerateMasterKey()
	} else {
		masterKey, err = s.session.MasterKey()
		if err != nil {
			return RegisterResult{}, err
		}
	}
	defer common.WipeByteArray(masterKey)

	salt := cryptox.GeneratePRFSalt()
	kek := cryptox.DeriveKEKFromPassword(passphrase, salt)
	defer common.WipeByteArray(kek)

	credentialID, err := common.MakeRandHexString(16)
	if err != nil {
		return RegisterResult{}, err
	}
	credentialID = passphraseCredentialPrefix + credentialID

	if err := s.persistEnrollment(ctx, credentialID, salt, masterKey, kek); err != nil {
		return RegisterResult{}, err
	}

	if first {
		keyCopy := make([]byte, len(masterKey))
		copy(keyCopy, masterKey)
		ok, err := s.session.Unlock(ctx, func(context.Context) ([]byte, bool, error) {
			return keyCopy, true, nil
		})
		if err != nil || !ok {
			return RegisterResult{}, fmt.Errorf("session install error: %w", err)
		}
	}

	s.logger.Info(ctx, "passphrase credential enrolled", "credential_id", credentialID)
	return RegisterResult{CredentialID: credentialID, OK: true}, nil
}

// persistEnrollment wraps the master key and writes the PRF params and the
// WrappedKey. Ordering matters: params first, wrapped key last, so a
// partial failure never leaves a WrappedKey that cannot be unlocked.
func (s *PasskeyService) persistEnrollment(ctx context.Context, credentialID string, salt, masterKey, kek []byte) error {
	wrapped, err := cryptox.WrapMasterKey(masterKey, kek)
	if err != nil {
		return fmt.Errorf("wrap error: %w", err)
	}
	wrapped.CredentialID = credentialID

	if err := s.store.PutPRFParams(ctx, &webauthn.PRFKeyParams{CredentialID: credentialID, Salt: salt}); err != nil {
		return fmt.Errorf("prf params persist error: %w", err)
	}
	if err := s.store.PutWrappedKey(ctx, wrapped); err != nil {
		return fmt.Errorf("wrapped key persist error: %w", err)
	}
	return nil
}

// UnlockWithPasskey runs an assertion ceremony for the credential, derives
// the KEK, unwraps the master key and transitions the session to Unlocked.
//
// Returns false (not an error) for a user-cancelled ceremony or a
// bad-credential unwrap failure — "please retry", as opposed to a systemic
// fault. Concurrent calls are coalesced by the session: only one ceremony
// runs, and every caller observes the same outcome.
func (s *PasskeyService) UnlockWithPasskey(ctx context.Context, credentialID string) (bool, error) {
	return s.session.Unlock(ctx, func(ctx context.Context) ([]byte, bool, error) {
		params, err := s.store.GetPRFParams(ctx, credentialID)
		if err != nil {
			return nil, false, fmt.Errorf("prf params fetch error: %w", err)
		}

		res, err := s.authn.Assert(ctx, credentialID, params.Salt)
		if err != nil {
			return nil, false, fmt.Errorf("ceremony error: %w", err)
		}
		if res.Cancelled() {
			return nil, false, nil
		}
		if res.Unsupported() {
			// the credential enrolled with PRF; losing it now is systemic
			return nil, false, common.ErrPRFUnsupported
		}

		kek, err := cryptox.DeriveKEKFromPRF(res.PRFOutput)
		if err != nil {
			return nil, false, err
		}
		defer common.WipeByteArray(kek)

		return s.unwrapFor(ctx, credentialID, kek)
	})
}

// UnlockWithPassphrase unlocks through a passphrase credential enrolled
// via EnrollPassphrase. A wrong passphrase surfaces as false, not an
// error, mirroring the bad-passkey case.
func (s *PasskeyService) UnlockWithPassphrase(ctx context.Context, credentialID string, passphrase []byte) (bool, error) {
	return s.session.Unlock(ctx, func(ctx context.Context) ([]byte, bool, error) {
		params, err := s.store.GetPRFParams(ctx, credentialID)
		if err != nil {
			return nil, false, fmt.Errorf("prf params fetch error: %w", err)
		}

		kek := cryptox.DeriveKEKFromPassword(passphrase, params.Salt)
		defer common.WipeByteArray(kek)

		return s.unwrapFor(ctx, credentialID, kek)
	})
}

// unwrapFor fetches the WrappedKey and unwraps it. An authentication-tag
// mismatch is the recoverable "wrong passkey" outcome; it is reported but
// never retried, because retrying a failed AEAD verification cannot
// succeed.
func (s *PasskeyService) unwrapFor(ctx context.Context, credentialID string, kek []byte) ([]byte, bool, error) {
	wrapped, err := s.store.GetWrappedKey(ctx, credentialID)
	if err != nil {
		return nil, false, fmt.Errorf("wrapped key fetch error: %w", err)
	}

	masterKey, err := cryptox.UnwrapMasterKey(wrapped, kek)
	if err != nil {
		if errors.Is(err, common.ErrUnwrapFailed) {
			s.logger.Warn(ctx, "unwrap failed for credential", "credential_id", credentialID)
			return nil, false, nil
		}
		return nil, false, err
	}
	return masterKey, true, nil
}

// Lock discards the in-memory master key.
func (s *PasskeyService) Lock() {
	s.session.Lock()
}

// RevokePasskey deletes the credential's WrappedKey and PRF params.
// Refuses to remove the last remaining credential: that would orphan the
// master key and with it every encrypted record.
func (s *PasskeyService) RevokePasskey(ctx context.Context, credentialID string) error {
	keys, err := s.store.ListWrappedKeys(ctx)
	if err != nil {
		return fmt.Errorf("keyring list error: %w", err)
	}
	if len(keys) <= 1 {
		return common.ErrLastCredential
	}

	if err := s.store.DeleteWrappedKey(ctx, credentialID); err != nil {
		return fmt.Errorf("revocation error: %w", err)
	}
	s.logger.Info(ctx, "passkey revoked", "credential_id", credentialID)
	return nil
}
