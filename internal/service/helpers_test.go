package service_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/msomdec/contact-book/internal/domain"
	"github.com/msomdec/contact-book/internal/repository/memory"
	"github.com/msomdec/contact-book/internal/repository/sqlite"
	"github.com/msomdec/contact-book/internal/service"
)

const (
	testEmail    = "b@x.com"
	testPassword = "Secret1!"
)

func newTestStore(t *testing.T) domain.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db.Store()
}

// sequentialIDs returns a generator producing prefix1, prefix2, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newTestAuthService(t *testing.T, store domain.Store, opts ...service.AuthOption) *service.AuthService {
	t.Helper()
	opts = append([]service.AuthOption{service.WithUserIDs(sequentialIDs("u"))}, opts...)
	auth, err := service.NewAuthService(context.Background(), store, opts...)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return auth
}

// newLoggedInServices registers and logs in testEmail, returning both state machines.
func newLoggedInServices(t *testing.T, store domain.Store) (*service.AuthService, *service.ContactService) {
	t.Helper()
	ctx := context.Background()
	auth := newTestAuthService(t, store)

	if _, err := auth.Register(ctx, domain.Registration{Name: "Bob", Email: testEmail, Password: testPassword}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := auth.Login(ctx, testEmail, testPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}

	contacts, err := service.NewContactService(ctx, store, auth, service.WithContactIDs(sequentialIDs("c")))
	if err != nil {
		t.Fatalf("NewContactService: %v", err)
	}
	return auth, contacts
}

var errDiskFull = errors.New("disk full")

// flakyStore fails every write while failing is true.
type flakyStore struct {
	*memory.Store
	failing bool
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if s.failing {
		return errDiskFull
	}
	return s.Store.Set(ctx, key, value)
}

func (s *flakyStore) Remove(ctx context.Context, key string) error {
	if s.failing {
		return errDiskFull
	}
	return s.Store.Remove(ctx, key)
}

func (s *flakyStore) Apply(ctx context.Context, mutations ...domain.Mutation) error {
	if s.failing {
		return errDiskFull
	}
	return s.Store.Apply(ctx, mutations...)
}

// testSession is a SessionReader whose user can be switched mid-test.
// An empty email means anonymous.
type testSession struct {
	email string
}

func (s *testSession) Session() domain.Session {
	if s.email == "" {
		return domain.Session{}
	}
	return domain.Session{CurrentUser: &domain.User{Email: s.email}, IsAuthenticated: true}
}

func newTestContactService(t *testing.T, store domain.Store, session service.SessionReader) *service.ContactService {
	t.Helper()
	contacts, err := service.NewContactService(context.Background(), store, session, service.WithContactIDs(sequentialIDs("c")))
	if err != nil {
		t.Fatalf("NewContactService: %v", err)
	}
	return contacts
}

// phone returns a distinct valid local number for n.
func phone(n int) string {
	return fmt.Sprintf("010%08d", n)
}
