package sessions

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"cloudshare/models"
)

var (
	ErrEmptyToken         = errors.New("token must not be empty")
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrJarRequired        = errors.New("session jar not provided")

	// ErrTokenRejected is returned by a Verifier when the backend refuses the token.
	ErrTokenRejected = errors.New("token rejected")
)

const (
	// DefaultRetention is how long a persisted token is kept by the jar.
	DefaultRetention = 7 * 24 * time.Hour

	// TokenEntry is the jar entry holding the bearer token.
	TokenEntry = "token"
)

// State is the client's belief about whether it holds a usable credential.
type State int

const (
	StateUninitialized State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "uninitialized"
	}
}

// Verifier confirms a rehydrated token with the backend before the store
// declares the session authenticated. It returns the identity on success and
// an error wrapping ErrTokenRejected when the backend refuses the token.
type Verifier interface {
	Verify(ctx context.Context) (models.Identity, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context) (models.Identity, error)

// Verify implements Verifier.
func (f VerifierFunc) Verify(ctx context.Context) (models.Identity, error) {
	return f(ctx)
}

// Store is the single source of truth for the client's session. One Store
// is created at startup and shared by everything that issues requests.
type Store struct {
	mu        sync.RWMutex
	jar       Jar
	state     State
	session   models.Session
	retention time.Duration
	now       func() time.Time

	readyOnce sync.Once
	ready     chan struct{}
}

// NewStore creates a store backed by jar. A non-positive retention uses DefaultRetention.
func NewStore(jar Jar, retention time.Duration) (*Store, error) {
	if jar == nil {
		return nil, ErrJarRequired
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		jar:       jar,
		retention: retention,
		now:       time.Now,
		ready:     make(chan struct{}),
	}, nil
}

// Initialize reads the jar once and settles the in-memory state. A present
// token makes the session authenticated without a server round-trip unless
// verifier is non-nil. It never fails; jar errors are logged and leave the
// store unauthenticated. Ready is closed when it returns.
func (s *Store) Initialize(ctx context.Context, verifier Verifier) State {
	defer s.readyOnce.Do(func() { close(s.ready) })

	token, ok, err := s.jar.Get(TokenEntry)
	if err != nil {
		log.Printf("[session] read jar failed, starting unauthenticated: %v", err)
	}
	if err != nil || !ok || token == "" {
		s.setUnauthenticated()
		log.Printf("[session] initialized: no stored token")
		return StateUnauthenticated
	}

	identity := models.Identity{}
	if verifier != nil {
		verified, err := verifier.Verify(ctx)
		switch {
		case err == nil:
			identity = verified
		case errors.Is(err, ErrTokenRejected):
			log.Printf("[session] stored token rejected by backend")
			if err := s.jar.Delete(TokenEntry); err != nil {
				log.Printf("[session] clear jar failed: %v", err)
			}
			s.setUnauthenticated()
			return StateUnauthenticated
		default:
			// Keep the optimistic state; the first failing request corrects it.
			log.Printf("[session] token verification unavailable: %v", err)
		}
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.session = models.Session{Token: token, Identity: identity}
	s.mu.Unlock()

	log.Printf("[session] initialized with stored token")
	return StateAuthenticated
}

// Ready is closed once Initialize has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Login persists token for the retention window and marks the session
// authenticated with identity merged as-is.
func (s *Store) Login(token string, identity models.Identity) error {
	if token == "" {
		return ErrEmptyToken
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.retention)
	if err := s.jar.Set(TokenEntry, token, expiresAt); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.session = models.Session{
		Token:     token,
		Identity:  identity.Clone(),
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	s.mu.Unlock()

	log.Printf("[session] login stored token (expires %s)", expiresAt.Format(time.RFC3339))
	return nil
}

// Logout clears the jar entry and the in-memory session. It is safe to call
// when already logged out. The in-memory state is cleared even if the jar
// delete fails.
func (s *Store) Logout() error {
	err := s.jar.Delete(TokenEntry)
	s.setUnauthenticated()
	if err != nil {
		log.Printf("[session] clear jar failed: %v", err)
		return err
	}
	log.Printf("[session] logged out")
	return nil
}

// CurrentToken returns the token held by the jar, not the in-memory copy,
// so it reflects the latest persisted value.
func (s *Store) CurrentToken() string {
	token, ok, err := s.jar.Get(TokenEntry)
	if err != nil {
		log.Printf("[session] read jar failed: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// State returns the in-memory session state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Session returns a snapshot of the in-memory session.
func (s *Store) Session() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session := s.session
	session.Identity = session.Identity.Clone()
	return session
}

// IsAuthenticated reports whether memory says authenticated and the jar
// still holds a token.
func (s *Store) IsAuthenticated() bool {
	return s.State() == StateAuthenticated && s.CurrentToken() != ""
}

func (s *Store) setUnauthenticated() {
	s.mu.Lock()
	s.state = StateUnauthenticated
	s.session = models.Session{}
	s.mu.Unlock()
}
