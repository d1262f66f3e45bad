package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/cipherdesk/cipherdesk/internal/common"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getSecret = GetSecret

// Register prompts for account credentials and creates a new account on
// the server. This is account authentication only; passkey enrollment and
// encryption setup happen separately via "setup".
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getSecret(os.Stdout, "Enter account password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Register(ctx, userName, string(password)); err != nil {
		return err
	}

	fmt.Println("Account created. Run 'login', then 'setup' to enroll a passkey.")
	return nil
}

// Login authenticates the account against the server and stores the
// resulting bearer token on the API client. The encryption session stays
// locked until a passkey or passphrase unlock.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getSecret(os.Stdout, "Enter account password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	a.userName = userName
	a.setMode(ModeOnline)
	log.Printf("Login successful")
	return nil
}

// Logout locks the encryption session and forgets the account identity.
func (a *App) Logout(ctx context.Context) error {
	a.passkeySvc.Lock()
	a.userName = ""
	return nil
}
