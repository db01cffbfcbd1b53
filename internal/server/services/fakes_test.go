package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/momentum-ia/momentum/internal/dbx"
	"github.com/momentum-ia/momentum/internal/server/config"
	"github.com/momentum-ia/momentum/internal/server/messaging"
	"github.com/momentum-ia/momentum/internal/server/models"
	commitmentsrepo "github.com/momentum-ia/momentum/internal/server/repositories/commitments"
	"github.com/momentum-ia/momentum/internal/server/repositories/repomanager"
	usersrepo "github.com/momentum-ia/momentum/internal/server/repositories/users"
	verificationsrepo "github.com/momentum-ia/momentum/internal/server/repositories/verifications"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{SecretKey: "k"}
}

type fakeUsersRepo struct {
	getOut *models.User
	getErr error

	createOut *models.User
	createErr error

	updateNameErr   error
	updatedNames    []string
	updateStateErr  error
	updatedStates   []string
	updatedPayloads []map[string]any
}

// Create and GetByPhone return the output and the error together, matching
// the real repository's legacy-schema shape (reduced row + ErrSchemaMismatch).
func (f *fakeUsersRepo) Create(ctx context.Context, phoneKey string) (*models.User, error) {
	return f.createOut, f.createErr
}

func (f *fakeUsersRepo) GetByPhone(ctx context.Context, phoneKey string) (*models.User, error) {
	if f.getErr != nil {
		return f.getOut, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) UpdateName(ctx context.Context, phoneKey string, name string) error {
	if f.updateNameErr != nil {
		return f.updateNameErr
	}
	f.updatedNames = append(f.updatedNames, name)
	return nil
}

func (f *fakeUsersRepo) UpdateProofState(ctx context.Context, phoneKey string, state string, data map[string]any) error {
	if f.updateStateErr != nil {
		return f.updateStateErr
	}
	f.updatedStates = append(f.updatedStates, state)
	f.updatedPayloads = append(f.updatedPayloads, data)
	return nil
}

type fakeCommitmentsRepo struct {
	createOut *models.Commitment
	createErr error
	created   []*models.Commitment

	getActiveOut *models.Commitment
	getActiveErr error
}

func (f *fakeCommitmentsRepo) Create(ctx context.Context, c *models.Commitment) (*models.Commitment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, c)
	if f.createOut != nil {
		return f.createOut, nil
	}
	return c, nil
}

func (f *fakeCommitmentsRepo) GetActiveByUserID(ctx context.Context, userID string) (*models.Commitment, error) {
	if f.getActiveErr != nil {
		return nil, f.getActiveErr
	}
	return f.getActiveOut, nil
}

type fakeVerificationsRepo struct {
	createErr error
	created   []*models.Verification

	listOut []*models.Verification
	listErr error
}

func (f *fakeVerificationsRepo) Create(ctx context.Context, v *models.Verification) (*models.Verification, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, v)
	return v, nil
}

func (f *fakeVerificationsRepo) ListByCommitmentID(ctx context.Context, commitmentID string) ([]*models.Verification, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	c *fakeCommitmentsRepo
	v *fakeVerificationsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Commitments(db dbx.DBTX) commitmentsrepo.Repository {
	return m.c
}
func (m *fakeRepoManager) Verifications(db dbx.DBTX) verificationsrepo.Repository {
	return m.v
}

type sentMessage struct {
	To   string
	Body string
}

type sentFlow struct {
	To         string
	ContentSID string
	CTA        string
}

type fakeDispatcher struct {
	sendErr error
	sent    []sentMessage
	flows   []sentFlow
}

func (d *fakeDispatcher) Send(ctx context.Context, to string, body string) (*messaging.Receipt, error) {
	if d.sendErr != nil {
		return nil, d.sendErr
	}
	d.sent = append(d.sent, sentMessage{To: to, Body: body})
	return &messaging.Receipt{SID: "SM1"}, nil
}

func (d *fakeDispatcher) SendFlow(ctx context.Context, to string, contentSID string, ctaText string) (*messaging.Receipt, error) {
	if d.sendErr != nil {
		return nil, d.sendErr
	}
	d.flows = append(d.flows, sentFlow{To: to, ContentSID: contentSID, CTA: ctaText})
	return &messaging.Receipt{SID: "SM2"}, nil
}

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)
var _ messaging.Dispatcher = (*fakeDispatcher)(nil)
