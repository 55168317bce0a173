// Package session holds the client side credential of a logged in user and
// notifies subscribers whenever it changes.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// State is what the session persists between runs
type State struct {
	AccessToken string `json:"accessToken,omitempty"`
	Role        string `json:"role,omitempty"` // Only used by the surrounding app for routing
}

// LoggedIn reports whether the state carries an access token
func (s State) LoggedIn() bool {
	return s.AccessToken != ""
}

// ErrSessionChanged is returned by UpdateAccessToken when the session no
// longer holds the token the refresh was started for.
var ErrSessionChanged = errors.New("session changed during refresh")

// Store is the credential storage backing a Session
type Store interface {
	Load() (State, error) // Empty state and nil error when nothing was saved
	Save(State) error
	Clear() error
}

type EventKind int

const (
	EventLogin EventKind = iota + 1
	EventRefresh
	EventLogout
)

func (k EventKind) String() string {
	switch k {
	case EventLogin:
		return "login"
	case EventRefresh:
		return "refresh"
	case EventLogout:
		return "logout"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is delivered to subscribers after the state has changed
type Event struct {
	Kind  EventKind
	State State
}

// Session is safe for concurrent use. Readers must call AccessToken at the
// point of sending a request and never hold on to the value.
type Session struct {
	writeMu sync.Mutex // serialises state changes together with the store
	mu      sync.RWMutex
	state  State
	store  Store
	log    zerolog.Logger
	subs   map[int]func(Event)
	nextID int
}

type Option func(*Session)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// New creates a Session initialised from whatever the store holds
func New(store Store, options ...Option) (*Session, error) {
	if store == nil {
		return nil, fmt.Errorf("[session.New] store is required")
	}
	s := &Session{
		store: store,
		log:   zerolog.Nop(),
		subs:  make(map[int]func(Event)),
	}
	for _, opt := range options {
		opt(s)
	}

	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("[session.New] load: %w", err)
	}
	s.state = state
	return s, nil
}

// AccessToken returns the current access token or "" when logged out
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Role
}

// State returns a copy of the current state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Login replaces the whole state after a successful login
func (s *Session) Login(accessToken, role string) error {
	s.writeMu.Lock()
	next := State{AccessToken: accessToken, Role: role}
	err := s.apply(EventLogin, next)
	s.writeMu.Unlock()
	if err != nil {
		return err
	}
	s.notify(Event{Kind: EventLogin, State: next})
	return nil
}

// UpdateAccessToken swaps rejected for a refreshed access token, keeping the
// role. It fails with ErrSessionChanged when the session was cleared or no
// longer holds rejected.
func (s *Session) UpdateAccessToken(rejected, accessToken string) error {
	s.writeMu.Lock()
	s.mu.RLock()
	next := s.state
	s.mu.RUnlock()
	if next.AccessToken == "" || next.AccessToken != rejected {
		s.writeMu.Unlock()
		return ErrSessionChanged
	}
	next.AccessToken = accessToken
	err := s.apply(EventRefresh, next)
	s.writeMu.Unlock()
	if err != nil {
		return err
	}
	s.notify(Event{Kind: EventRefresh, State: next})
	return nil
}

// Clear drops the in-memory state first and then the persisted copy, so the
// session is logged out even when the store fails.
func (s *Session) Clear() error {
	s.writeMu.Lock()
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()

	err := s.store.Clear()
	s.writeMu.Unlock()
	if err != nil {
		s.log.Warn().Err(err).Msg("session store clear failed")
		err = fmt.Errorf("[Session.Clear] %w", err)
	}
	s.notify(Event{Kind: EventLogout})
	return err
}

// Subscribe registers fn for change events and returns a function that
// removes it. fn runs synchronously on the goroutine that changed the state.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Token exposes the access token as an oauth2 token. Expiry is read from the
// unverified exp claim and left zero when the token is not a JWT.
func (s *Session) Token() *oauth2.Token {
	accessToken := s.AccessToken()
	if accessToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Expiry:      expiry(accessToken),
	}
}

// apply persists next and only then makes it current. A failed save leaves
// the session as it was. The caller holds writeMu.
func (s *Session) apply(kind EventKind, next State) error {
	if err := s.store.Save(next); err != nil {
		return fmt.Errorf("[Session.%s] save: %w", kind, err)
	}
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	s.log.Debug().Stringer("event", kind).Str("role", next.Role).Msg("session changed")
	return nil
}

func (s *Session) notify(e Event) {
	s.mu.RLock()
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}

func expiry(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
