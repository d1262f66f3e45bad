package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/cipherdesk/cipherdesk/internal/common"
)

// Setup runs first-time encryption setup: register the first passkey,
// falling back to a passphrase when the authenticator has no PRF support.
func (a *App) Setup(ctx context.Context) error {
	res, err := a.passkeySvc.RegisterFirstPasskey(ctx, a.userName)
	if err != nil {
		if errors.Is(err, common.ErrPRFUnsupported) {
			log.Println("This authenticator cannot derive encryption keys; falling back to a passphrase.")
			return a.enrollPassphrase(ctx)
		}
		return err
	}
	if !res.OK {
		fmt.Println("Passkey setup cancelled.")
		return nil
	}

	fmt.Printf("Passkey registered (%s). Your data is now end-to-end encrypted.\n", res.CredentialID)
	return nil
}

// Unlock runs a passkey ceremony for the given credential and unlocks the
// encryption session.
func (a *App) Unlock(ctx context.Context) error {
	credentialID, err := getSimpleText(a.reader, "Enter credential id", os.Stdout)
	if err != nil {
		return err
	}

	ok, err := a.passkeySvc.UnlockWithPasskey(ctx, credentialID)
	if err != nil {
		if errors.Is(err, common.ErrPRFUnsupported) {
			log.Println("Authenticator lost PRF support; try a passphrase unlock.")
		}
		return err
	}
	if !ok {
		fmt.Println("Unlock did not complete. Try again or use another passkey.")
		return nil
	}

	fmt.Println("Unlocked.")
	return nil
}

// UnlockPassphrase unlocks through a passphrase credential.
func (a *App) UnlockPassphrase(ctx context.Context) error {
	credentialID, err := getSimpleText(a.reader, "Enter passphrase credential id", os.Stdout)
	if err != nil {
		return err
	}
	passphrase, err := getSecret(os.Stdout, "Enter passphrase")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(passphrase)

	ok, err := a.passkeySvc.UnlockWithPassphrase(ctx, credentialID, passphrase)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Wrong passphrase.")
		return nil
	}

	fmt.Println("Unlocked.")
	return nil
}

// Lock discards the in-memory master key.
func (a *App) LockSession(ctx context.Context) error {
	a.passkeySvc.Lock()
	fmt.Println("Locked.")
	return nil
}

// Enroll adds another passkey while the session is unlocked.
func (a *App) Enroll(ctx context.Context) error {
	res, err := a.passkeySvc.EnrollAdditionalPasskey(ctx, a.userName)
	if err != nil {
		if errors.Is(err, common.ErrSessionLocked) {
			fmt.Println("Unlock first: enrolling a new passkey needs the master key in memory.")
			return nil
		}
		return err
	}
	if !res.OK {
		fmt.Println("Enrollment cancelled.")
		return nil
	}

	fmt.Printf("Passkey enrolled (%s).\n", res.CredentialID)
	return nil
}

func (a *App) enrollPassphrase(ctx context.Context) error {
	passphrase, err := getSecret(os.Stdout, "Choose a passphrase")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(passphrase)

	res, err := a.passkeySvc.EnrollPassphrase(ctx, passphrase)
	if err != nil {
		return err
	}
	fmt.Printf("Passphrase credential enrolled (%s).\n", res.CredentialID)
	return nil
}

// Revoke removes a passkey's wrapped key. The last credential cannot be
// revoked.
func (a *App) Revoke(ctx context.Context) error {
	credentialID, err := getSimpleText(a.reader, "Enter credential id to revoke", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.passkeySvc.RevokePasskey(ctx, credentialID); err != nil {
		if errors.Is(err, common.ErrLastCredential) {
			fmt.Println("Refusing to revoke the last credential: it would orphan all encrypted data.")
			return nil
		}
		return err
	}

	fmt.Println("Revoked.")
	return nil
}
