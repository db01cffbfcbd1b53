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

// Status kinds returned by Resolve. The wire form (String) is what the
// planner prompt and the stage router key on.
const (
	StatusNewUser            = "new_user"
	StatusExistingNoGoal     = "existing_no_goal"
	StatusExistingActiveGoal = "existing_active_goal"
	StatusErrorDatabaseCheck = "error_database_check"
)

// Status classifies a user's lifecycle stage. Err carries the storage detail
// behind error_database_check for logging; it never reaches the user.
type Status struct {
	Kind string
	Name string
	Err  error
}

func (s Status) String() string {
	if s.Name != "" && (s.Kind == StatusExistingNoGoal || s.Kind == StatusExistingActiveGoal) {
		return s.Kind + ":" + s.Name
	}
	return s.Kind
}

// UserService resolves lifecycle status and handles onboarding name updates.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		config:      cfg,
	}
}

// Resolve looks up the user by canonical phone key, creating the record on
// first contact. Storage failures degrade to error_database_check so the
// calling turn can still apologize instead of crashing. A row reduced by
// missing proof columns still classifies normally, with the schema error
// carried in Status.Err for the operator log.
func (s *UserService) Resolve(ctx context.Context, phoneKey string) Status {
	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByPhone(ctx, phoneKey)
	if err != nil {
		if errors.Is(err, common.ErrSchemaMismatch) && user != nil {
			st := s.classify(ctx, user)
			st.Err = err
			return st
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return Status{Kind: StatusErrorDatabaseCheck, Err: err}
		}
		if user, err = userRepo.Create(ctx, phoneKey); err != nil {
			// A conflict re-read can come back reduced on a legacy schema;
			// the row is still usable.
			if errors.Is(err, common.ErrSchemaMismatch) && user != nil {
				st := s.classify(ctx, user)
				st.Err = err
				return st
			}
			return Status{Kind: StatusErrorDatabaseCheck, Err: err}
		}
		return Status{Kind: StatusNewUser}
	}

	return s.classify(ctx, user)
}

func (s *UserService) classify(ctx context.Context, user *models.User) Status {
	if !user.Onboarded() {
		return Status{Kind: StatusNewUser}
	}

	commitmentRepo := s.repomanager.Commitments(s.db)
	_, err := commitmentRepo.GetActiveByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return Status{Kind: StatusExistingNoGoal, Name: user.Name}
		}
		return Status{Kind: StatusErrorDatabaseCheck, Err: err}
	}

	return Status{Kind: StatusExistingActiveGoal, Name: user.Name}
}

// UpdateName stores the display name collected during onboarding.
func (s *UserService) UpdateName(ctx context.Context, phoneKey string, name string) error {
	repo := s.repomanager.Users(s.db)

	if _, err := lookupUser(ctx, repo, phoneKey); err != nil {
		return err
	}

	if err := repo.UpdateName(ctx, phoneKey, name); err != nil {
		return fmt.Errorf("error updating name: %w", err)
	}
	return nil
}
