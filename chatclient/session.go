package chatclient

import (
	"context"
	"log"
	"sync"
)

// Guard tracks the signed-in user and their cached profile. It replaces the
// module-level currentUserId/userProfile globals of earlier iterations with
// one owned state object: sign-in sets both, sign-out clears both, and the
// profile is not refreshed on backend changes while signed in.
type Guard struct {
	mu      sync.RWMutex
	backend Backend

	userID  string
	profile *Profile
}

// NewGuard creates a signed-out guard.
func NewGuard(backend Backend) *Guard {
	return &Guard{backend: backend}
}

// SignIn records the session's user id and caches their profile. A profile
// fetch failure is logged and leaves the cache empty; the session itself is
// still established.
func (g *Guard) SignIn(ctx context.Context, userID string) {
	g.mu.Lock()
	g.userID = userID
	g.profile = nil
	g.mu.Unlock()

	profile, err := g.backend.FetchProfile(ctx, userID)
	if err != nil {
		log.Printf("Failed to fetch profile for %s: %v", userID, err)
		return
	}

	g.mu.Lock()
	// A sign-out (or a different sign-in) may have happened while the
	// fetch was in flight; only cache for the session that asked.
	if g.userID == userID {
		g.profile = &profile
	}
	g.mu.Unlock()
}

// SignOut clears the session.
func (g *Guard) SignOut() {
	g.mu.Lock()
	g.userID = ""
	g.profile = nil
	g.mu.Unlock()
}

// UserID returns the signed-in user id, or "" when signed out.
func (g *Guard) UserID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.userID
}

// SignedIn reports whether a session is active.
func (g *Guard) SignedIn() bool {
	return g.UserID() != ""
}

// Profile returns the cached profile, or nil when none is cached.
func (g *Guard) Profile() *Profile {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.profile
}
