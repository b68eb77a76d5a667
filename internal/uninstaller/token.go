package uninstaller

import "sync/atomic"

// Token is handed to a run when it is spawned. Cancelling it stops the run
// before the next package; the one already being removed finishes.
type Token struct {
	cancelled atomic.Bool
}

func NewToken() *Token { return &Token{} }

func (t *Token) Cancel() {
	if t != nil {
		t.cancelled.Store(true)
	}
}

func (t *Token) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}
