package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/momentum-ia/momentum/internal/common"
	"github.com/momentum-ia/momentum/internal/dbx"
	"github.com/momentum-ia/momentum/internal/server/config"
	"github.com/momentum-ia/momentum/internal/server/messaging"
	"github.com/momentum-ia/momentum/internal/server/models"
	"github.com/momentum-ia/momentum/internal/server/repositories/repomanager"
)

const (
	proofPromptText  = "Time to submit proof of your progress! Please send a photo showing what you've done."
	proofRepromptMsg = "I'm waiting for your proof photo. Please send a photo to complete your submission."
	proofSuccessMsg  = "Proof received and recorded. Great work staying accountable!"
	proofFlowCTA     = "Submit Proof"
)

// AdvanceResult reports what the proof protocol did with an inbound message.
// Handled false means no submission was in progress and the message should
// fall through to normal stage routing.
type AdvanceResult struct {
	Handled      bool
	Completed    bool
	Verification *models.Verification
}

// ProofService is the photo-proof collection protocol persisted on the user
// row: no submission in progress, or waiting for a photo. Completion always
// resets the state, so the machine never needs garbage collection.
type ProofService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	now         func() time.Time
}

func NewProofService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *ProofService {
	return &ProofService{
		db:          db,
		repomanager: m,
		config:      cfg,
		now:         time.Now,
	}
}

// Start puts the user into the awaiting-photo state, discarding any stale
// payload, and prompts for the photo. Re-entrant: starting while already
// awaiting simply re-prompts. The prompt goes out as a WhatsApp Flow when a
// flow template is configured, as plain text otherwise.
func (s *ProofService) Start(ctx context.Context, phoneKey string, d messaging.Dispatcher) error {
	repo := s.repomanager.Users(s.db)

	if _, err := lookupUser(ctx, repo, phoneKey); err != nil {
		return err
	}

	if err := repo.UpdateProofState(ctx, phoneKey, models.ProofStateAwaitingPhoto, nil); err != nil {
		return fmt.Errorf("error updating proof state: %w", err)
	}

	if s.config.WhatsAppFlowSID != "" {
		_, err := d.SendFlow(ctx, phoneKey, s.config.WhatsAppFlowSID, proofFlowCTA)
		return err
	}
	_, err := d.Send(ctx, phoneKey, proofPromptText)
	return err
}

// Advance feeds one inbound message into the protocol:
//   - no submission in progress: Handled false, nothing sent;
//   - awaiting and no media attached: re-prompt, state unchanged;
//   - awaiting with media: reset state, record a verification for today with
//     the media reference and the message text as justification, confirm.
//
// The state reset and the verification insert commit together; the
// confirmation send happens after the commit so a delivery failure never
// rolls back the record.
func (s *ProofService) Advance(ctx context.Context, phoneKey string, message string, mediaRef string, d messaging.Dispatcher) (*AdvanceResult, error) {
	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByPhone(ctx, phoneKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &AdvanceResult{Handled: false}, nil
		}
		if errors.Is(err, common.ErrSchemaMismatch) {
			// No usable proof state: report the schema problem and let the
			// caller continue as if no submission were in progress.
			return &AdvanceResult{Handled: false}, err
		}
		return nil, fmt.Errorf("error checking user: %w", err)
	}

	if user.ProofState != models.ProofStateAwaitingPhoto {
		return &AdvanceResult{Handled: false}, nil
	}

	if mediaRef == "" {
		if _, err := d.Send(ctx, phoneKey, proofRepromptMsg); err != nil {
			return nil, err
		}
		return &AdvanceResult{Handled: true}, nil
	}

	var verification *models.Verification

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdateProofState(ctx, phoneKey, models.ProofStateNone, nil); err != nil {
			return fmt.Errorf("error resetting proof state: %w", err)
		}

		commitment, err := s.repomanager.Commitments(tx).GetActiveByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrNoActiveCommitment
			}
			return fmt.Errorf("error fetching commitment: %w", err)
		}

		verification, err = s.repomanager.Verifications(tx).Create(ctx, &models.Verification{
			CommitmentID:  commitment.ID,
			DueDate:       s.now().Format("2006-01-02"),
			Status:        models.VerificationStatusOnTime,
			ProofURL:      mediaRef,
			Justification: message,
			VerifiedAt:    s.now(),
		})
		if err != nil {
			return fmt.Errorf("error creating verification: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := d.Send(ctx, phoneKey, proofSuccessMsg); err != nil {
		return nil, err
	}

	return &AdvanceResult{Handled: true, Completed: true, Verification: verification}, nil
}
