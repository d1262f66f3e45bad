package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/filex"
)

// Attach encrypts a local file and uploads it to object storage.
func (a *App) Attach(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Enter file path", os.Stdout)
	if err != nil {
		return err
	}

	id, err := a.attachSvc.Upload(ctx, path)
	if err != nil {
		if errors.Is(err, common.ErrSessionLocked) {
			fmt.Println("Session is locked. Run 'unlock' first.")
			return nil
		}
		return err
	}

	fmt.Printf("Attachment uploaded (%s).\n", id)
	return nil
}

// Fetch downloads and decrypts an attachment into ./download.
func (a *App) Fetch(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter attachment id", os.Stdout)
	if err != nil {
		return err
	}

	dir, err := filex.EnsureSubDir("download")
	if err != nil {
		return err
	}

	dest, err := a.attachSvc.Download(ctx, id, dir)
	if err != nil {
		if errors.Is(err, common.ErrSessionLocked) {
			fmt.Println("Session is locked. Run 'unlock' first.")
			return nil
		}
		return err
	}

	fmt.Printf("File saved to: %s\n", dest)
	return nil
}
