package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/msomdec/contact-book/internal/domain"
)

// AuthService owns the user registry and the current session. It rehydrates
// both from the store on construction and mirrors every transition back.
type AuthService struct {
	store  domain.Store
	hasher PasswordHasher
	newID  func() string

	mu         sync.Mutex
	users      []domain.User
	current    *domain.User
	remembered string
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithPasswordHasher selects how passwords are stored. Plaintext by default.
func WithPasswordHasher(h PasswordHasher) AuthOption {
	return func(s *AuthService) { s.hasher = h }
}

// WithUserIDs replaces the uuid generator used for new users.
func WithUserIDs(newID func() string) AuthOption {
	return func(s *AuthService) { s.newID = newID }
}

// NewAuthService creates an AuthService and loads the registry, session and
// remembered email from store.
func NewAuthService(ctx context.Context, store domain.Store, opts ...AuthOption) (*AuthService, error) {
	s := &AuthService{
		store:  store,
		hasher: PlaintextPasswords{},
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := load(ctx, store, domain.KeyUsers, &s.users); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	var current *domain.User
	hasUser, err := load(ctx, store, domain.KeyCurrentUser, &current)
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}
	var authenticated bool
	if _, err := load(ctx, store, domain.KeyIsAuthenticated, &authenticated); err != nil {
		return nil, fmt.Errorf("load session flag: %w", err)
	}
	switch {
	case hasUser && current != nil && authenticated:
		s.current = current
	case hasUser || authenticated:
		slog.Warn("inconsistent persisted session, starting anonymous",
			"has_user", hasUser && current != nil, "authenticated", authenticated)
	}

	if _, err := load(ctx, store, domain.KeyRememberedEmail, &s.remembered); err != nil {
		return nil, fmt.Errorf("load remembered email: %w", err)
	}

	return s, nil
}

// Register validates the candidate and appends it to the registry.
// It does not log the new user in.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if err := firstViolation(registrationFields(reg)...); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(reg.Email) >= 0 {
		return nil, domain.ErrDuplicateEmail
	}

	stored, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	user := domain.User{
		ID:       s.newID(),
		Name:     reg.Name,
		Email:    reg.Email,
		Password: stored,
	}
	next := append(slices.Clone(s.users), user)

	m, err := encode(domain.KeyUsers, next)
	if err != nil {
		return nil, err
	}
	if err := persist(ctx, s.store, m); err != nil {
		return nil, fmt.Errorf("register %s: %w", reg.Email, err)
	}

	s.users = next
	slog.Debug("user registered", "email", user.Email)
	return &user, nil
}

// Login authenticates by exact email and password match.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if err := firstViolation(loginFields(email, password)...); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(email)
	if i < 0 {
		return nil, domain.ErrUserNotFound
	}
	user := s.users[i]
	if err := s.hasher.Compare(user.Password, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	um, err := encode(domain.KeyCurrentUser, user)
	if err != nil {
		return nil, err
	}
	am, err := encode(domain.KeyIsAuthenticated, true)
	if err != nil {
		return nil, err
	}
	if err := persist(ctx, s.store, um, am); err != nil {
		return nil, fmt.Errorf("login %s: %w", email, err)
	}

	s.current = &user
	slog.Debug("user logged in", "email", email)
	out := user
	return &out, nil
}

// Logout always leaves the session anonymous. A storage failure is reported
// but does not keep the user logged in.
func (s *AuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	err := persist(ctx, s.store,
		domain.Mutation{Key: domain.KeyCurrentUser},
		domain.Mutation{Key: domain.KeyIsAuthenticated},
	)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Session returns a snapshot of the current session.
func (s *AuthService) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.Session{}
	}
	u := *s.current
	return domain.Session{CurrentUser: &u, IsAuthenticated: true}
}

// Users returns a copy of the registry in registration order.
func (s *AuthService) Users() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.users)
}

// SetRememberedEmail stores the email to pre-fill on the next login form.
// An empty email forgets it.
func (s *AuthService) SetRememberedEmail(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if email == s.remembered {
		return nil
	}

	m := domain.Mutation{Key: domain.KeyRememberedEmail}
	if email != "" {
		var err error
		if m, err = encode(domain.KeyRememberedEmail, email); err != nil {
			return err
		}
	}
	if err := persist(ctx, s.store, m); err != nil {
		return fmt.Errorf("remember email: %w", err)
	}
	s.remembered = email
	return nil
}

// RememberedEmail returns the remembered login email, or "".
func (s *AuthService) RememberedEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remembered
}

func (s *AuthService) indexOf(email string) int {
	return slices.IndexFunc(s.users, func(u domain.User) bool { return u.Email == email })
}
