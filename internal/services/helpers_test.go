package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/labflow-backend/internal/data/aggregates"
	"github.com/yungbote/labflow-backend/internal/data/repos"
	"github.com/yungbote/labflow-backend/internal/data/repos/testutil"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/platform/objectstore"
	"github.com/yungbote/labflow-backend/internal/render"
	"github.com/yungbote/labflow-backend/internal/render/rendertest"
)

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []Mail
}

func (m *fakeMailer) Send(_ context.Context, mail Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeNotifier struct {
	mu      sync.Mutex
	err     error
	notices []Notice
}

func (n *fakeNotifier) Notify(_ context.Context, notice Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

type fakeArchive struct {
	mu      sync.Mutex
	err     error
	keys    []string
	objects map[string][]byte
}

func (a *fakeArchive) Put(_ context.Context, key, _ string, body []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.keys = append(a.keys, key)
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = body
	return nil
}

func (a *fakeArchive) Get(ctx context.Context, key string) (*objectstore.Object, error) {
	info, err := a.Stat(ctx, key)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return &objectstore.Object{ObjectInfo: *info, Body: a.objects[key]}, nil
}

func (a *fakeArchive) Stat(_ context.Context, key string) (*objectstore.ObjectInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	body, ok := a.objects[key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	return &objectstore.ObjectInfo{Key: key, ContentType: "application/pdf", Size: int64(len(body)), Modified: fixedNow}, nil
}

func (a *fakeArchive) Backend() objectstore.Backend { return objectstore.BackendS3 }

type lab struct {
	db       *gorm.DB
	store    labtest.Store
	clients  repos.ClientRepo
	printer  *rendertest.Printer
	mailer   *fakeMailer
	notifier *fakeNotifier
	archive  *fakeArchive
	equip    EquipmentService
	workflow WorkflowService
	docs     DocumentService
	intake   IntakeService
}

var fixedNow = time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)

func newLab(t *testing.T) *lab {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	clients := repos.NewClientRepo(db, log)
	store := aggregates.NewTestRequestAggregate(aggregates.TestRequestAggregateDeps{
		Base:     aggregates.BaseDeps{DB: db, Log: log},
		Requests: repos.NewTestRequestRepo(db, log),
		Counter:  repos.NewCounterRepo(db, log),
		Clients:  clients,
	})
	printer := &rendertest.Printer{}
	renderer, err := render.New(log, printer, time.Second, nil)
	require.NoError(t, err)

	l := &lab{
		db:       db,
		store:    store,
		clients:  clients,
		printer:  printer,
		mailer:   &fakeMailer{},
		notifier: &fakeNotifier{},
		archive:  &fakeArchive{},
	}
	l.equip = NewEquipmentService(log, repos.NewEquipmentRepo(db, log))
	deps := LabDeps{
		Store:         store,
		Renderer:      renderer,
		Mailer:        l.mailer,
		Archive:       l.archive,
		Notifier:      l.notifier,
		Equipment:     l.equip,
		Now:           func() time.Time { return fixedNow },
		PublicBaseURL: "https://lab.example/",
	}
	l.workflow = NewWorkflowService(log, deps)
	l.docs = NewDocumentService(log, deps)
	l.intake = NewIntakeService(log, store, nil)
	return l
}

// newRequest stores the two-department fixture request.
func (l *lab) newRequest(t *testing.T) *labtest.TestRequest {
	t.Helper()
	ctx := context.Background()
	c := testutil.SeedClient(t, ctx, l.db, uuid.NewString()+"@builder.test")
	r, err := l.intake.Create(ctx, testutil.Draft(c.ID))
	require.NoError(t, err)
	return r
}

func keyOf(st labtest.SubTest) labtest.SubTestKey {
	return labtest.SubTestKey{AtlID: st.AtlID, TestType: st.TestType, Material: st.Material}
}
