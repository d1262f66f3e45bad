package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cipherdesk/cipherdesk/internal/client/models"
	"github.com/cipherdesk/cipherdesk/internal/common"
)

// addRecord collects a typed payload via details and persists it through
// the record service. A locked session is reported, not returned as an
// error: the REPL stays usable.
func (a *App) addRecord(ctx context.Context, t models.RecordType, details func() (string, any, error)) error {
	title, payload, err := details()
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	envelope, err := models.Wrap(t, title, payload)
	if err != nil {
		return err
	}

	id, err := a.recordSvc.Add(ctx, envelope)
	if err != nil {
		if errors.Is(err, common.ErrSessionLocked) {
			fmt.Println("Session is locked. Run 'unlock' first.")
			return nil
		}
		log.Printf("error: %v", err)
		return err
	}

	fmt.Printf("Saved (%s).\n", id)
	return nil
}

// AddContact collects contact fields and persists them as a new record.
func (a *App) AddContact(ctx context.Context) error {
	return a.addRecord(ctx, models.RecordTypeContact, func() (string, any, error) {
		name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
		if err != nil {
			return "", nil, err
		}
		email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
		if err != nil {
			return "", nil, err
		}
		phone, err := getSimpleText(a.reader, "Enter phone", os.Stdout)
		if err != nil {
			return "", nil, err
		}
		return name, models.Contact{Name: name, Email: email, Phone: phone}, nil
	})
}

// AddTask collects task fields and persists them as a new record.
func (a *App) AddTask(ctx context.Context) error {
	return a.addRecord(ctx, models.RecordTypeTask, func() (string, any, error) {
		title, err := getSimpleText(a.reader, "Enter task title", os.Stdout)
		if err != nil {
			return "", nil, err
		}
		notes, err := GetMultiline(a.reader, "Enter notes (empty line to finish):", os.Stdout)
		if err != nil {
			return "", nil, err
		}
		return title, models.Task{Title: title, Notes: notes}, nil
	})
}

// AddLabel collects label fields and persists them as a new record.
func (a *App) AddLabel(ctx context.Context) error {
	return a.addRecord(ctx, models.RecordTypeLabel, func() (string, any, error) {
		name, err := getSimpleText(a.reader, "Enter label name", os.Stdout)
		if err != nil {
			return "", nil, err
		}
		color, err := getSimpleText(a.reader, "Enter color", os.Stdout)
		if err != nil {
			return "", nil, err
		}
		return name, models.Label{Name: name, Color: color}, nil
	})
}

// List prints one line per cached record. Rows that fail to decrypt are
// shown as unreadable instead of hiding the whole list.
func (a *App) List(ctx context.Context) error {
	views, err := a.recordSvc.List(ctx)
	if err != nil {
		if errors.Is(err, common.ErrSessionLocked) {
			fmt.Println("Session is locked. Run 'unlock' first.")
			return nil
		}
		return err
	}

	for _, v := range views {
		if v.Err != nil {
			fmt.Printf("%s  <unreadable>\n", v.ID)
			continue
		}
		fmt.Printf("%s  [%s] %s\n", v.ID, v.Overview.Type, v.Overview.Title)
	}
	return nil
}

// Show fetches and displays a single record by ID.
func (a *App) Show(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter record id to show", os.Stdout)
	if err != nil {
		return err
	}

	envelope, err := a.recordSvc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrSessionLocked) {
			fmt.Println("Session is locked. Run 'unlock' first.")
			return nil
		}
		return err
	}

	fmt.Println(envelope.Title)

	x, err := envelope.Unwrap()
	if err != nil {
		return err
	}

	switch item := x.(type) {
	case models.Contact:
		fmt.Printf("Name: %s\n", item.Name)
		fmt.Printf("Email: %s\n", item.Email)
		fmt.Printf("Phone: %s\n", item.Phone)
		if item.Notes != "" {
			fmt.Printf("Notes: %s\n", item.Notes)
		}

	case models.Task:
		fmt.Printf("Title: %s\n", item.Title)
		fmt.Printf("Done: %v\n", item.Done)
		if item.DueDate != nil {
			fmt.Printf("Due: %s\n", item.DueDate.Format(time.DateOnly))
		}
		if item.Notes != "" {
			fmt.Printf("Notes: %s\n", item.Notes)
		}

	case models.Label:
		fmt.Printf("Name: %s\n", item.Name)
		fmt.Printf("Color: %s\n", item.Color)
	}

	return nil
}

// Delete removes a record by its identifier, prompting the user for the ID.
func (a *App) Delete(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter record id to delete", os.Stdout)
	if err != nil {
		return err
	}
	return a.recordSvc.Delete(ctx, id)
}

// Sync replaces the local cache with the server's record set.
func (a *App) Sync(ctx context.Context) error {
	return a.recordSvc.Sync(ctx)
}
