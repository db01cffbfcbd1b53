package verifications

import (
	"context"

	"github.com/momentum-ia/momentum/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, verification *models.Verification) (*models.Verification, error)
	ListByCommitmentID(ctx context.Context, commitmentID string) ([]*models.Verification, error)
}
