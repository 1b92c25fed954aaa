package download

import (
	"sync"

	"vidfetch/models"
)

// progressTracker holds live job progress between database writes. Terminal
// states are persisted; intermediate percentages only live here.
type progressTracker struct {
	mu     sync.RWMutex
	states map[string]progressState
}

type progressState struct {
	status  models.Status
	percent float64
}

func newProgressTracker() *progressTracker {
	return &progressTracker{states: make(map[string]progressState)}
}

func (t *progressTracker) Set(id string, status models.Status, percent float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[id] = progressState{status: status, percent: percent}
}

func (t *progressTracker) Get(id string) (models.Status, float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.states[id]
	return state.status, state.percent, ok
}

func (t *progressTracker) Delete(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, id)
}
