package operations

import (
	"sync"

	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// SessionCache keeps the result of the last successful run. It is written
// once per run and read by any number of collaborators in between.
// Returned results are shared and must not be modified.
type SessionCache struct {
	mu       sync.RWMutex
	result   *domain.AnalysisResult
	computed bool
}

// NewSessionCache creates an empty cache.
func NewSessionCache() *SessionCache {
	return &SessionCache{}
}

// Store replaces the cached result.
func (c *SessionCache) Store(result *domain.AnalysisResult) {
	if result == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = result
	c.computed = true
}

// Computed reports whether a run has completed since startup.
func (c *SessionCache) Computed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.computed
}

// Latest returns the last stored result.
func (c *SessionCache) Latest() (*domain.AnalysisResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result, c.computed
}

// Productivity returns the overall productivity of the last run. ok is false
// until a run with attendance data has completed.
func (c *SessionCache) Productivity() (domain.KeyedRatio, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.computed || c.result.Productivity == nil {
		return domain.KeyedRatio{}, false
	}
	return c.result.Productivity.Overall, true
}
