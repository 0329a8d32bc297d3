package ports

import (
	"context"

	"github.com/aretw0/kiosk/pkg/domain"
)

// SessionStore defines the interface for holding per-user sessions.
type SessionStore interface {
	// Save stores the session under the given key.
	Save(ctx context.Context, key string, session *domain.Session) error

	// Load retrieves the session for a given key.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, key string) (*domain.Session, error)

	// Delete removes the session for a given key.
	Delete(ctx context.Context, key string) error

	// List returns the keys of all known sessions.
	List(ctx context.Context) ([]string, error)
}
