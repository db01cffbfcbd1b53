package commitments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/momentum-ia/momentum/internal/common"
	"github.com/momentum-ia/momentum/internal/dbx"
	"github.com/momentum-ia/momentum/internal/server/models"
)

// pgUniqueViolation is raised by the partial unique index when a second
// active commitment is inserted for the same user.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Commitment) (*models.Commitment, error) {

	query :=
		`INSERT INTO commitments
		     (user_id, goal_description, task_description, stake_amount, stake_type,
		      start_date, end_date, schedule, verification_method, status)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
		 RETURNING id
		 `

	schedule, err := json.Marshal(c.Schedule)
	if err != nil {
		return nil, fmt.Errorf("schedule encode error: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		c.UserID, c.GoalDescription, c.TaskDescription, c.StakeAmount, c.StakeType,
		c.StartDate, c.EndDate, schedule, c.VerificationMethod, c.Status).Scan(&c.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrCommitmentAlreadyActive
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) GetActiveByUserID(ctx context.Context, userID string) (*models.Commitment, error) {

	query :=
		`SELECT id, user_id, goal_description, COALESCE(task_description, ''),
		        stake_amount, stake_type, to_char(start_date, 'YYYY-MM-DD'),
		        to_char(end_date, 'YYYY-MM-DD'), schedule,
		        COALESCE(verification_method, ''), status, created_at
		 FROM commitments
		 WHERE user_id = $1 AND status = 'active'
		 `

	c := &models.Commitment{}
	var schedule []byte
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&c.ID, &c.UserID, &c.GoalDescription, &c.TaskDescription,
			&c.StakeAmount, &c.StakeType, &c.StartDate, &c.EndDate, &schedule,
			&c.VerificationMethod, &c.Status, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &c.Schedule); err != nil {
			return nil, fmt.Errorf("schedule decode error: %w", err)
		}
	}

	return c, nil
}
