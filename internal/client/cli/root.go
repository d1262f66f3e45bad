package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.isUnlocked() {
		s += "unlocked"
	} else {
		s += "locked"
	}
	if a.Mode != "" {
		s += " " + string(a.Mode)
	}
	return fmt.Sprintf("(%s)", s)
}

// Root starts the interactive loop. It greets, forces a login, then hands
// control to the REPL dispatcher.
func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to CipherDesk CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	_ = a.Login(ctx)

	runREPL(ctx, a, a.getStatus, scanner)
}
