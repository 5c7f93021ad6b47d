package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/repository/memory"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

type trackerMock struct {
	mu         sync.Mutex
	activities []*model.Activity
}

func (m *trackerMock) Track(_ context.Context, a *model.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, a)
	return nil
}

func (m *trackerMock) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.activities))
	for i, a := range m.activities {
		out[i] = a.Message
	}
	return out
}

type archiveMock struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *archiveMock) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return nil
}

type observerMock struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *observerMock) ObserveImportRow(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[outcome]++
}

type fixture struct {
	repo     *memory.Memory
	uc       *usecase.UseCases
	tracker  *trackerMock
	archive  *archiveMock
	observer *observerMock
	hooks    *usecase.HookRegistry
	caseID   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     memory.New(),
		tracker:  &trackerMock{},
		archive:  &archiveMock{},
		observer: &observerMock{},
		hooks:    usecase.NewHookRegistry(),
	}
	f.uc = usecase.New(f.repo,
		usecase.WithHooks(f.hooks),
		usecase.WithActivityTracker(f.tracker),
		usecase.WithImportArchive(f.archive),
		usecase.WithImportObserver(f.observer),
	)

	c, err := f.uc.Case.EnsureDefault(context.Background())
	gt.NoError(t, err).Required()
	f.caseID = c.ID
	return f
}

func (f *fixture) newCase(t *testing.T, name string) int64 {
	t.Helper()
	c, err := f.uc.Case.Create(context.Background(), map[string]any{"case_name": name})
	gt.NoError(t, err).Required()
	return c.ID
}

func businessKind(t *testing.T, err error) model.ErrorKind {
	t.Helper()
	be, ok := model.AsBusinessError(err)
	if !ok {
		t.Fatalf("expected business error, got %v", err)
	}
	return be.Kind()
}

func ptr[T any](v T) *T {
	return &v
}
