package users

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

// pgUndefinedColumn is the PostgreSQL error code raised when a query names a
// column the schema does not have. The proof-submission columns are the only
// ones we expect to be missing on stale deployments, so it maps to
// common.ErrSchemaMismatch instead of a generic db error.
const pgUndefinedColumn = "42703"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a user row for a phone key seen for the first time. The
// insert is a no-op when the key already exists, so racing turns for the same
// key never duplicate the record; callers re-read after a conflict.
func (r *PostgresRepository) Create(ctx context.Context, phoneKey string) (*models.User, error) {

	query :=
		`INSERT INTO users (phone_key)
		 VALUES ($1)
		 ON CONFLICT (phone_key) DO NOTHING
		 RETURNING id
		 `

	user := &models.User{PhoneKey: phoneKey}
	err := r.db.QueryRowContext(ctx, query, phoneKey).Scan(&user.ID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// conflict: the row already exists
			return r.GetByPhone(ctx, phoneKey)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByPhone(ctx context.Context, phoneKey string) (*models.User, error) {

	query :=
		`SELECT id, phone_key, COALESCE(name, ''), COALESCE(proof_submission_state, ''), proof_submission_data, created_at
		 FROM users
		 WHERE phone_key = $1
		 `

	user := &models.User{}
	var proofData []byte
	err := r.db.QueryRowContext(ctx, query, phoneKey).
		Scan(&user.ID, &user.PhoneKey, &user.Name, &user.ProofState, &proofData, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		if isUndefinedColumn(err) {
			return r.getByPhoneLegacy(ctx, phoneKey, err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(proofData) > 0 {
		if err := json.Unmarshal(proofData, &user.ProofData); err != nil {
			return nil, fmt.Errorf("proof data decode error: %w", err)
		}
	}

	return user, nil
}

// getByPhoneLegacy re-reads the row without the proof-submission columns so
// stale deployments keep answering. The row comes back together with
// ErrSchemaMismatch: callers can continue as if no submission were in
// progress while operators see the schema problem.
func (r *PostgresRepository) getByPhoneLegacy(ctx context.Context, phoneKey string, cause error) (*models.User, error) {

	query :=
		`SELECT id, phone_key, COALESCE(name, ''), created_at
		 FROM users
		 WHERE phone_key = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, phoneKey).
		Scan(&user.ID, &user.PhoneKey, &user.Name, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, fmt.Errorf("%w: %v", common.ErrSchemaMismatch, cause)
}

func (r *PostgresRepository) UpdateName(ctx context.Context, phoneKey string, name string) error {

	query :=
		`UPDATE users SET name = $2
		 WHERE phone_key = $1
		 RETURNING id
		 `

	var id string
	err := r.db.QueryRowContext(ctx, query, phoneKey, name).Scan(&id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// UpdateProofState persists the proof-submission machine state. An empty
// state clears the column; nil or empty data clears the payload.
func (r *PostgresRepository) UpdateProofState(ctx context.Context, phoneKey string, state string, data map[string]any) error {

	query :=
		`UPDATE users
		 SET proof_submission_state = NULLIF($2, ''),
		     proof_submission_data = $3
		 WHERE phone_key = $1
		 RETURNING id
		 `

	var payload any
	if len(data) > 0 {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("proof data encode error: %w", err)
		}
		payload = b
	}

	var id string
	err := r.db.QueryRowContext(ctx, query, phoneKey, state, payload).Scan(&id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		if isUndefinedColumn(err) {
			return fmt.Errorf("%w: %v", common.ErrSchemaMismatch, err)
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func isUndefinedColumn(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedColumn
}
