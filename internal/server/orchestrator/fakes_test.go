package orchestrator

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/momentum-ia/momentum/internal/dbx"
	"github.com/momentum-ia/momentum/internal/logging"
	"github.com/momentum-ia/momentum/internal/server/config"
	"github.com/momentum-ia/momentum/internal/server/messaging"
	"github.com/momentum-ia/momentum/internal/server/models"
	"github.com/momentum-ia/momentum/internal/server/oracle"
	commitmentsrepo "github.com/momentum-ia/momentum/internal/server/repositories/commitments"
	usersrepo "github.com/momentum-ia/momentum/internal/server/repositories/users"
	verificationsrepo "github.com/momentum-ia/momentum/internal/server/repositories/verifications"
	"github.com/momentum-ia/momentum/internal/server/services"
)

// --- repository fakes ---

type fakeUsersRepo struct {
	getOut *models.User
	getErr error

	createOut *models.User
	createErr error

	updateNameErr error
	updatedNames  []string
	updatedStates []string
}

func (f *fakeUsersRepo) Create(ctx context.Context, phoneKey string) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *fakeUsersRepo) GetByPhone(ctx context.Context, phoneKey string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
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
	f.updatedStates = append(f.updatedStates, state)
	return nil
}

type fakeCommitmentsRepo struct {
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
	return c, nil
}

func (f *fakeCommitmentsRepo) GetActiveByUserID(ctx context.Context, userID string) (*models.Commitment, error) {
	if f.getActiveErr != nil {
		return nil, f.getActiveErr
	}
	return f.getActiveOut, nil
}

type fakeVerificationsRepo struct {
	created []*models.Verification
}

func (f *fakeVerificationsRepo) Create(ctx context.Context, v *models.Verification) (*models.Verification, error) {
	f.created = append(f.created, v)
	return v, nil
}

func (f *fakeVerificationsRepo) ListByCommitmentID(ctx context.Context, commitmentID string) ([]*models.Verification, error) {
	return f.created, nil
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

// --- collaborator fakes ---

type sentMessage struct {
	To   string
	Body string
}

type fakeDispatcher struct {
	sendErr error
	sent    []sentMessage
	flows   []sentMessage
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
	d.flows = append(d.flows, sentMessage{To: to, Body: contentSID})
	return &messaging.Receipt{SID: "SM2"}, nil
}

type fakePlanner struct {
	plan     *Plan
	err      error
	requests []PlanRequest
}

func (p *fakePlanner) Plan(ctx context.Context, req PlanRequest) (*Plan, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return p.plan, nil
}

type fakeOracle struct {
	verdict *oracle.Verdict
	err     error
	goals   []string
}

func (o *fakeOracle) Judge(ctx context.Context, goalDescription string, imageB64 string) (*oracle.Verdict, error) {
	o.goals = append(o.goals, goalDescription)
	if o.err != nil && o.verdict == nil {
		return nil, o.err
	}
	return o.verdict, o.err
}

type fakeArchive struct {
	url string
	err error
}

func (a *fakeArchive) Store(ctx context.Context, imageB64 string) (string, string, error) {
	if a.err != nil {
		return "", "", a.err
	}
	return "proofs/k", a.url, nil
}

// --- engine harness ---

type engineHarness struct {
	engine     *Engine
	dispatcher *fakeDispatcher
	planner    *fakePlanner
	oracle     *fakeOracle
	repos      *fakeRepoManager
	mock       sqlmock.Sqlmock
	db         *sql.DB
}

func newEngineHarness(t *testing.T, repos *fakeRepoManager) *engineHarness {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if repos.u == nil {
		repos.u = &fakeUsersRepo{}
	}
	if repos.c == nil {
		repos.c = &fakeCommitmentsRepo{}
	}
	if repos.v == nil {
		repos.v = &fakeVerificationsRepo{}
	}

	cfg := &config.Config{SecretKey: "k"}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	h := &engineHarness{
		dispatcher: &fakeDispatcher{},
		planner:    &fakePlanner{plan: &Plan{Op: OpReply, Reply: "ok"}},
		oracle:     &fakeOracle{},
		repos:      repos,
		mock:       mock,
		db:         db,
	}

	h.engine = NewEngine(EngineParams{
		Users:         services.NewUserService(db, repos, cfg),
		Commitments:   services.NewCommitmentService(db, repos, cfg),
		Verifications: services.NewVerificationService(db, repos, cfg),
		Proofs:        services.NewProofService(db, repos, cfg),
		Dispatcher:    h.dispatcher,
		Planner:       h.planner,
		Oracle:        h.oracle,
		Archive:       &fakeArchive{url: "http://minio/proofs/k"},
		Logger:        logger,
		Metrics:       nil,
	})
	return h
}
