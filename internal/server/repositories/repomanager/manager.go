// Package repomanager wires repository constructors behind one interface so
// services can run the same code against *sql.DB and *sql.Tx handles.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/cipherdesk/cipherdesk/internal/dbx"
	"github.com/cipherdesk/cipherdesk/internal/server/repositories/attachments"
	"github.com/cipherdesk/cipherdesk/internal/server/repositories/keyring"
	"github.com/cipherdesk/cipherdesk/internal/server/repositories/records"
	"github.com/cipherdesk/cipherdesk/internal/server/repositories/refreshtokens"
	"github.com/cipherdesk/cipherdesk/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX and owns schema
// migrations.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Keyring(db dbx.DBTX) keyring.Repository
	Records(db dbx.DBTX) records.Repository
	Attachments(db dbx.DBTX) attachments.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
