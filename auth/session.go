package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"charterbus/models"

	"github.com/google/uuid"
)

// ErrNoSession is returned when no signed-in session exists.
var ErrNoSession = errors.New("no active session")

// SessionRepo persists session records between requests.
type SessionRepo interface {
	SaveSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Gate owns the signed-in state of a browser. Everything behind the
// home screen requires a session resolved through it, and interested
// parts of the app subscribe to hear when the session changes.
type Gate struct {
	identity *IdentityClient
	repo     SessionRepo

	mu        sync.Mutex
	listeners map[int]func(*models.Session)
	nextID    int
}

func NewGate(identity *IdentityClient, repo SessionRepo) *Gate {
	return &Gate{
		identity:  identity,
		repo:      repo,
		listeners: make(map[int]func(*models.Session)),
	}
}

// Subscribe registers a listener for session changes. The returned
// function removes it. Listeners receive nil when the session is cleared.
func (g *Gate) Subscribe(fn func(*models.Session)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

func (g *Gate) notify(s *models.Session) {
	g.mu.Lock()
	fns := make([]func(*models.Session), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// Establish turns a fresh token grant into a stored session.
func (g *Gate) Establish(ctx context.Context, pair *TokenPair) (*models.Session, error) {
	user, err := g.identity.GetUser(ctx, pair.AccessToken)
	if err != nil {
		return nil, err
	}
	session := &models.Session{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		DisplayName:  displayName(user),
		Email:        user.Email,
		Phone:        user.Phone,
		Provider:     user.AppMeta.Provider,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		CreatedAt:    time.Now(),
	}
	if err := g.repo.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	g.notify(session)
	return session, nil
}

// Resolve loads the session behind a session ID, or ErrNoSession.
func (g *Gate) Resolve(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	session, err := g.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrNoSession
	}
	return session, nil
}

// Refresh renews the provider grant behind an existing session.
func (g *Gate) Refresh(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := g.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pair, err := g.identity.RefreshToken(ctx, session.RefreshToken)
	if err != nil {
		return nil, err
	}
	session.AccessToken = pair.AccessToken
	if pair.RefreshToken != "" {
		session.RefreshToken = pair.RefreshToken
	}
	if err := g.repo.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Clear signs the user out. The provider revocation must succeed first:
// if it fails, the local session stays intact and the error surfaces, so
// the user is never shown a signed-out screen while the provider still
// holds a live grant.
func (g *Gate) Clear(ctx context.Context, sessionID string) error {
	session, err := g.Resolve(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := g.identity.SignOut(ctx, session.AccessToken); err != nil {
		return err
	}
	if err := g.repo.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	g.notify(nil)
	return nil
}

// displayName picks a name to greet the user with. Profile metadata
// wins, then the local part of the email, then a generic fallback.
func displayName(user *IdentityUser) string {
	for _, key := range []string{"name", "full_name"} {
		if v, ok := user.Metadata[key].(string); ok && v != "" {
			return v
		}
	}
	if user.Email != "" {
		if at := strings.Index(user.Email, "@"); at > 0 {
			return user.Email[:at]
		}
	}
	return "고객"
}
