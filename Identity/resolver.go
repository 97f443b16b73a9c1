package Identity

import (
	"context"
	"fmt"
	"log"
	"sync"

	"MediFlow/ApiClient"
)

// Directory is the backend side of identity resolution
type Directory interface {
	UsuarioByUID(ctx context.Context, uid string) (ApiClient.Usuario, error)
	SyncFirebase(ctx context.Context, idToken string) (ApiClient.MessageResponse, error)
}

// Resolver maps the signed-in identity to the backend numeric user id.
// When the mapping is missing it re-syncs the identity token with the backend
// once and retries.
type Resolver struct {
	provider  Provider
	directory Directory

	mu       sync.Mutex
	userID   int
	resolved bool
}

func NewResolver(provider Provider, directory Directory) *Resolver {
	return &Resolver{provider: provider, directory: directory}
}

// Cached returns the last resolved id without calling the backend
func (r *Resolver) Cached() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userID, r.resolved
}

// Reset drops the cached id, e.g. after sign out
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userID, r.resolved = 0, false
}

// Resolve looks up the backend id for the current user. Concurrent callers
// wait for the same lookup.
func (r *Resolver) Resolve(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return r.userID, nil
	}

	uid, ok := r.provider.CurrentUserID()
	if !ok {
		return 0, ErrNotAuthenticated
	}

	u, err := r.directory.UsuarioByUID(ctx, uid)
	if err == nil && u.ID > 0 {
		r.userID, r.resolved = u.ID, true
		return u.ID, nil
	}
	log.Printf("identity: lookup of uid %s failed (%v), re-syncing and retrying", uid, err)

	token, err := r.provider.IDToken(ctx, true)
	if err != nil || token == "" {
		log.Printf("identity: no id token to sync with backend: %v", err)
		return 0, fmt.Errorf("%w: no id token", ErrUnresolved)
	}
	if _, err := r.directory.SyncFirebase(ctx, token); err != nil {
		log.Printf("identity: backend sync failed: %v", err)
		return 0, fmt.Errorf("%w: %v", ErrUnresolved, err)
	}

	u, err = r.directory.UsuarioByUID(ctx, uid)
	if err != nil || u.ID <= 0 {
		log.Printf("identity: retry of uid %s failed: %v", uid, err)
		return 0, fmt.Errorf("%w: uid %s", ErrUnresolved, uid)
	}
	r.userID, r.resolved = u.ID, true
	return u.ID, nil
}
