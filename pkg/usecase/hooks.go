package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
)

// Hook is an extension callback receiving the data of a hook point. The returned value replaces
// the data passed to the next hook.
type Hook func(ctx context.Context, data any, caseID int64) (any, error)

// HookRegistry maps hook points to their ordered callbacks. The zero registry has no hooks and
// every call passes data through unchanged.
type HookRegistry struct {
	mu    sync.RWMutex
	hooks map[types.HookPoint][]Hook
}

func NewHookRegistry() *HookRegistry {
	return &HookRegistry{hooks: make(map[types.HookPoint][]Hook)}
}

// Register appends a hook to a hook point
func (r *HookRegistry) Register(point types.HookPoint, hook Hook) error {
	if !point.IsValid() {
		return goerr.Wrap(ErrUnknownHookPoint, "failed to register hook", goerr.V(HookKey, point))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hooks == nil {
		r.hooks = make(map[types.HookPoint][]Hook)
	}
	r.hooks[point] = append(r.hooks[point], hook)
	return nil
}

// Len returns the number of hooks registered on a hook point
func (r *HookRegistry) Len(point types.HookPoint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[point])
}

func (r *HookRegistry) list(point types.HookPoint) []Hook {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Hook(nil), r.hooks[point]...)
}

// Call runs every hook of the point in order. A failing hook, or one returning a value of
// another type than T, is logged and skipped.
func Call[T any](ctx context.Context, r *HookRegistry, point types.HookPoint, data T, caseID int64) T {
	logger := logging.From(ctx)

	for i, hook := range r.list(point) {
		out, err := hook(ctx, data, caseID)
		if err != nil {
			logger.Warn("hook failed", "hook", point, "index", i, "case_id", caseID, "error", err)
			continue
		}

		typed, ok := out.(T)
		if !ok {
			logger.Warn("hook returned unexpected data", "hook", point, "index", i, "case_id", caseID)
			continue
		}
		data = typed
	}

	return data
}
