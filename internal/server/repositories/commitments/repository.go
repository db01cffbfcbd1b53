package commitments

import (
	"context"

	"github.com/momentum-ia/momentum/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, commitment *models.Commitment) (*models.Commitment, error)
	GetActiveByUserID(ctx context.Context, userID string) (*models.Commitment, error)
}
