// Package audit implements activity trackers recording the audit trail of case mutations.
package audit

import (
	"context"
	"slices"
	"sync"

	"github.com/secmon-lab/caseflow/pkg/domain/model"
)

// Memory keeps activities in process. It backs the tracker when no stream is configured.
type Memory struct {
	mu         sync.RWMutex
	activities []*model.Activity
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Track(_ context.Context, activity *model.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *activity
	m.activities = append(m.activities, &copied)
	return nil
}

// List returns the activities of a case, oldest first
func (m *Memory) List(caseID int64) []*model.Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.DeleteFunc(slices.Clone(m.activities), func(a *model.Activity) bool {
		return a.CaseID != caseID
	})
}
