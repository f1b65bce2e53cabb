package chat

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// workspaceLimiter hands out one token bucket per workspace. Callers only
// pass ids of workspaces that exist.
type workspaceLimiter struct {
	mu       sync.Mutex
	perMin   int
	limiters map[string]*rate.Limiter
}

func newWorkspaceLimiter(perMinute int) *workspaceLimiter {
	return &workspaceLimiter{
		perMin:   perMinute,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether workspaceID may run another query now. A
// non-positive rate disables limiting.
func (l *workspaceLimiter) Allow(workspaceID string) bool {
	if l == nil || l.perMin <= 0 {
		return true
	}

	l.mu.Lock()
	limiter, ok := l.limiters[workspaceID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)
		l.limiters[workspaceID] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
