// Package services implements the conversation workflow operations on top of
// the repository layer: lifecycle status, goal management, proof collection
// and verification recording.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/momentum-ia/momentum/internal/common"
	"github.com/momentum-ia/momentum/internal/server/models"
	usersrepo "github.com/momentum-ia/momentum/internal/server/repositories/users"
)

// lookupUser maps repository lookup results to service-level errors. A row
// that came back reduced because the proof columns are missing is still
// usable here; the schema problem is reported where proof state actually
// matters.
func lookupUser(ctx context.Context, repo usersrepo.Repository, phoneKey string) (*models.User, error) {
	user, err := repo.GetByPhone(ctx, phoneKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		if errors.Is(err, common.ErrSchemaMismatch) && user != nil {
			return user, nil
		}
		return nil, fmt.Errorf("error checking user: %w", err)
	}
	return user, nil
}
