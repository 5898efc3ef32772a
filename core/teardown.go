package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Teardown priorities. Lower values execute first.
const (
	PriorityContainer = 10
	PriorityNetworks  = 20
)

// TeardownHook releases one acquired resource.
type TeardownHook struct {
	Name     string
	Priority int // Lower values execute first
	Hook     func(context.Context) error
}

// Teardown runs the registered release hooks exactly once.
// Hooks run sequentially in priority order, registration order breaking
// ties, and a failing hook never prevents the following ones.
type Teardown struct {
	timeout time.Duration
	logger  Logger

	mu    sync.Mutex
	hooks []TeardownHook
	once  sync.Once
	ran   bool
	errs  []error
}

// NewTeardown creates a teardown bounded by timeout.
func NewTeardown(logger Logger, timeout time.Duration) *Teardown {
	if timeout <= 0 {
		timeout = DefaultCleanupTimeout
	}

	return &Teardown{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a hook. Hooks registered after Run are run immediately so a
// resource acquired concurrently with the teardown is never leaked.
func (t *Teardown) Register(hook TeardownHook) {
	t.mu.Lock()
	if t.ran {
		t.mu.Unlock()
		t.logger.Warningf("Teardown already ran, releasing %s now", hook.Name)
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if err := hook.Hook(ctx); err != nil {
			t.logger.Errorf("Teardown hook '%s' failed: %v", hook.Name, err)
		}
		return
	}
	defer t.mu.Unlock()

	t.hooks = append(t.hooks, hook)
	sort.SliceStable(t.hooks, func(i, j int) bool {
		return t.hooks[i].Priority < t.hooks[j].Priority
	})
}

// Len returns the number of registered hooks.
func (t *Teardown) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.hooks)
}

// Run executes the hooks on a context detached from ctx's cancellation and
// bounded by the teardown timeout. Later calls return the first result.
func (t *Teardown) Run(ctx context.Context) []error {
	t.once.Do(func() {
		t.mu.Lock()
		t.ran = true
		hooks := append([]TeardownHook(nil), t.hooks...)
		t.mu.Unlock()

		t.errs = t.run(ctx, hooks)
	})
	return t.errs
}

func (t *Teardown) run(parent context.Context, hooks []TeardownHook) []error {
	if len(hooks) == 0 {
		return nil
	}

	t.logger.Noticef("Releasing %d resource(s) (timeout: %v)", len(hooks), t.timeout)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), t.timeout)
	defer cancel()

	var errs []error
	for _, h := range hooks {
		t.logger.Debugf("Executing teardown hook: %s (priority: %d)", h.Name, h.Priority)

		if err := h.Hook(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				err = fmt.Errorf("%w: %w", ErrTeardownTimeout, err)
			}
			t.logger.Errorf("Teardown hook '%s' failed: %v", h.Name, err)
			errs = append(errs, fmt.Errorf("hook %s: %w", h.Name, err))
			continue
		}
		t.logger.Debugf("Teardown hook '%s' completed successfully", h.Name)
	}

	if len(errs) == 0 {
		t.logger.Noticef("All resources released")
	}
	return errs
}
