package repomanager

import (
	"context"
	"database/sql"

	"github.com/momentum-ia/momentum/internal/dbx"
	"github.com/momentum-ia/momentum/internal/server/repositories/commitments"
	"github.com/momentum-ia/momentum/internal/server/repositories/users"
	"github.com/momentum-ia/momentum/internal/server/repositories/verifications"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Commitments(db dbx.DBTX) commitments.Repository
	Verifications(db dbx.DBTX) verifications.Repository
}
