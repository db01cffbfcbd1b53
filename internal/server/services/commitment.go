package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/momentum-ia/momentum/internal/common"
	"github.com/momentum-ia/momentum/internal/server/config"
	"github.com/momentum-ia/momentum/internal/server/models"
	"github.com/momentum-ia/momentum/internal/server/repositories/repomanager"
)

// CommitmentDraft carries the goal-setting parameters collected from the
// conversation before a commitment row exists.
type CommitmentDraft struct {
	GoalDescription    string
	TaskDescription    string
	StakeAmount        float64
	StakeType          string
	StartDate          string
	EndDate            string
	Schedule           map[string]any
	VerificationMethod string
}

// CommitmentService creates and retrieves the user's active goal record.
// Stake amounts are recorded intent only; no payment call happens here.
type CommitmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
}

func NewCommitmentService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *CommitmentService {
	return &CommitmentService{
		db:          db,
		repomanager: m,
		config:      cfg,
	}
}

// Create inserts an active commitment for the user. A second active
// commitment is rejected with ErrCommitmentAlreadyActive. Schedule defaults
// to daily and stake type to per-missed-day when the draft leaves them empty.
func (s *CommitmentService) Create(ctx context.Context, phoneKey string, draft CommitmentDraft) (*models.Commitment, error) {
	user, err := lookupUser(ctx, s.repomanager.Users(s.db), phoneKey)
	if err != nil {
		return nil, err
	}

	schedule := draft.Schedule
	if len(schedule) == 0 {
		schedule = map[string]any{"daily": true}
	}
	stakeType := draft.StakeType
	if stakeType == "" {
		stakeType = models.StakeTypePerMissedDay
	}

	commitment := &models.Commitment{
		UserID:             user.ID,
		GoalDescription:    draft.GoalDescription,
		TaskDescription:    draft.TaskDescription,
		StakeAmount:        draft.StakeAmount,
		StakeType:          stakeType,
		StartDate:          draft.StartDate,
		EndDate:            draft.EndDate,
		Schedule:           schedule,
		VerificationMethod: draft.VerificationMethod,
		Status:             models.CommitmentStatusActive,
	}

	repo := s.repomanager.Commitments(s.db)
	created, err := repo.Create(ctx, commitment)
	if err != nil {
		if errors.Is(err, common.ErrCommitmentAlreadyActive) {
			return nil, common.ErrCommitmentAlreadyActive
		}
		return nil, fmt.Errorf("error creating commitment: %w", err)
	}

	return created, nil
}

// GetActive returns the user's single active commitment.
func (s *CommitmentService) GetActive(ctx context.Context, phoneKey string) (*models.Commitment, error) {
	user, err := lookupUser(ctx, s.repomanager.Users(s.db), phoneKey)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Commitments(s.db)
	commitment, err := repo.GetActiveByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNoActiveCommitment
		}
		return nil, fmt.Errorf("error fetching commitment: %w", err)
	}

	return commitment, nil
}
