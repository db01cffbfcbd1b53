package verifications

import (
	"context"
	"fmt"

	"github.com/momentum-ia/momentum/internal/dbx"
	"github.com/momentum-ia/momentum/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.Verification) (*models.Verification, error) {

	query :=
		`INSERT INTO verifications
		     (commitment_id, due_date, status, proof_url, justification, verified_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		v.CommitmentID, v.DueDate, v.Status, v.ProofURL, v.Justification, v.VerifiedAt).Scan(&v.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return v, nil
}

func (r *PostgresRepository) ListByCommitmentID(ctx context.Context, commitmentID string) ([]*models.Verification, error) {

	query :=
		`SELECT id, commitment_id, to_char(due_date, 'YYYY-MM-DD'), status,
		        COALESCE(proof_url, ''), COALESCE(justification, ''), verified_at
		 FROM verifications
		 WHERE commitment_id = $1
		 ORDER BY verified_at
		 `

	rows, err := r.db.QueryContext(ctx, query, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Verification
	for rows.Next() {
		v := &models.Verification{}
		err := rows.Scan(&v.ID, &v.CommitmentID, &v.DueDate, &v.Status,
			&v.ProofURL, &v.Justification, &v.VerifiedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
