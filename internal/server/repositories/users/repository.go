// Package users provides persistence for account rows.
package users

import (
	"context"

	"github.com/cipherdesk/cipherdesk/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
}
