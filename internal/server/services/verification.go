package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/momentum-ia/momentum/internal/common"
	"github.com/momentum-ia/momentum/internal/server/config"
	"github.com/momentum-ia/momentum/internal/server/models"
	"github.com/momentum-ia/momentum/internal/server/repositories/repomanager"
)

// VerificationService records proof submissions against the user's active
// commitment. Rows are immutable; multi-day commitments stay active across
// many verifications.
type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	now         func() time.Time
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *VerificationService {
	return &VerificationService{
		db:          db,
		repomanager: m,
		config:      cfg,
		now:         time.Now,
	}
}

// Record writes one verification for the given due date. The status is the
// fixed on-time value; lateness is not computed against the schedule.
func (s *VerificationService) Record(ctx context.Context, phoneKey string, dueDate string, proofURL string, justification string) (*models.Verification, error) {
	user, err := lookupUser(ctx, s.repomanager.Users(s.db), phoneKey)
	if err != nil {
		return nil, err
	}

	commitmentRepo := s.repomanager.Commitments(s.db)
	commitment, err := commitmentRepo.GetActiveByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNoActiveCommitment
		}
		return nil, fmt.Errorf("error fetching commitment: %w", err)
	}

	verification := &models.Verification{
		CommitmentID:  commitment.ID,
		DueDate:       dueDate,
		Status:        models.VerificationStatusOnTime,
		ProofURL:      proofURL,
		Justification: justification,
		VerifiedAt:    s.now(),
	}

	repo := s.repomanager.Verifications(s.db)
	created, err := repo.Create(ctx, verification)
	if err != nil {
		return nil, fmt.Errorf("error creating verification: %w", err)
	}

	return created, nil
}

// History lists the recorded verifications for the user's active commitment,
// oldest first.
func (s *VerificationService) History(ctx context.Context, phoneKey string) ([]*models.Verification, error) {
	user, err := lookupUser(ctx, s.repomanager.Users(s.db), phoneKey)
	if err != nil {
		return nil, err
	}

	commitmentRepo := s.repomanager.Commitments(s.db)
	commitment, err := commitmentRepo.GetActiveByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNoActiveCommitment
		}
		return nil, fmt.Errorf("error fetching commitment: %w", err)
	}

	repo := s.repomanager.Verifications(s.db)
	list, err := repo.ListByCommitmentID(ctx, commitment.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing verifications: %w", err)
	}

	return list, nil
}
