package ports

import (
	"context"

	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
)

// SessionStore persists shopper sessions. Load returns an empty session
// for unknown ids.
type SessionStore interface {
	Load(ctx context.Context, id string) (*entity.Session, error)
	Save(ctx context.Context, s *entity.Session) error
	Delete(ctx context.Context, id string) error
}
