package users

import (
	"context"

	"github.com/momentum-ia/momentum/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, phoneKey string) (*models.User, error)
	GetByPhone(ctx context.Context, phoneKey string) (*models.User, error)
	UpdateName(ctx context.Context, phoneKey string, name string) error
	UpdateProofState(ctx context.Context, phoneKey string, state string, data map[string]any) error
}
