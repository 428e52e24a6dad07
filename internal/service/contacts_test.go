package service_test

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/msomdec/contact-book/internal/domain"
	"github.com/msomdec/contact-book/internal/repository/memory"
)

// assertDense fails unless every owner's Order values are exactly 1..N.
func assertDense(t *testing.T, contacts []domain.Contact) {
	t.Helper()
	orders := map[string][]int{}
	for _, c := range contacts {
		orders[c.UserID] = append(orders[c.UserID], c.Order)
	}
	for owner, got := range orders {
		slices.Sort(got)
		for i, o := range got {
			if o != i+1 {
				t.Fatalf("owner %s orders = %v, want 1..%d", owner, got, len(got))
			}
		}
	}
}

func ordersByID(contacts []domain.Contact) map[string]int {
	out := make(map[string]int, len(contacts))
	for _, c := range contacts {
		out[c.ID] = c.Order
	}
	return out
}

func TestContactService_AddAssignsNextOrder(t *testing.T) {
	ctx := context.Background()
	_, contacts := newLoggedInServices(t, newTestStore(t))

	for i := 1; i <= 3; i++ {
		c, err := contacts.AddContact(ctx, testEmail, "Contact", phone(i))
		if err != nil {
			t.Fatalf("AddContact %d: %v", i, err)
		}
		if c.Order != i {
			t.Errorf("Order = %d, want %d", c.Order, i)
		}
		if c.UserID != testEmail {
			t.Errorf("UserID = %q, want %q", c.UserID, testEmail)
		}
	}
}

func TestContactService_AddNormalizesPhone(t *testing.T) {
	ctx := context.Background()
	_, contacts := newLoggedInServices(t, memory.NewStore())

	a, err := contacts.AddContact(ctx, testEmail, "Alice", "01012345678")
	if err != nil {
		t.Fatalf("AddContact: %v", err)
	}
	if a.PhoneNumber != "+201012345678" {
		t.Errorf("PhoneNumber = %q, want +201012345678", a.PhoneNumber)
	}

	b, err := contacts.AddContact(ctx, testEmail, "Bobby", "+201112345678")
	if err != nil {
		t.Fatalf("AddContact with prefix: %v", err)
	}
	if b.PhoneNumber != "+201112345678" {
		t.Errorf("PhoneNumber = %q, want +201112345678", b.PhoneNumber)
	}
}

func TestContactService_AddValidation(t *testing.T) {
	ctx := context.Background()
	_, contacts := newLoggedInServices(t, memory.NewStore())
	if _, err := contacts.AddContact(ctx, testEmail, "Alice", "01012345678"); err != nil {
		t.Fatalf("AddContact: %v", err)
	}

	tests := []struct {
		name      string
		cName     string
		phone     string
		wantField string
		wantMsg   string
	}{
		{"empty name", "", "01112345678", "name", "Name is required"},
		{"short name", "Al", "01112345678", "name", "Name must be at least 3 characters"},
		{"empty phone", "Carol", "", "phoneNumber", "Phone number is required"},
		{"bad prefix", "Carol", "01312345678", "phoneNumber", "Phone number must start with 010, 011, 012, or 015"},
		{"too short", "Carol", "0101234567", "phoneNumber", "Phone number must be exactly 11 digits"},
		{"non digits", "Carol", "010123456ab", "phoneNumber", "Phone number must contain only digits"},
		{"duplicate", "Carol", "01012345678", "phoneNumber", "Phone number already exists"},
		{"duplicate with prefix", "Carol", "+201012345678", "phoneNumber", "Phone number already exists"},
		{"name checked first", "", "", "name", "Name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := contacts.AddContact(ctx, testEmail, tt.cName, tt.phone)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField || verr.Message != tt.wantMsg {
				t.Errorf("got %s: %q, want %s: %q", verr.Field, verr.Message, tt.wantField, tt.wantMsg)
			}
		})
	}

	if n := len(contacts.ListForOwner(testEmail)); n != 1 {
		t.Errorf("contacts = %d, want 1", n)
	}
}

func TestContactService_PhoneUniquePerOwnerOnly(t *testing.T) {
	ctx := context.Background()
	session := &testSession{email: "a@x.com"}
	contacts := newTestContactService(t, memory.NewStore(), session)

	if _, err := contacts.AddContact(ctx, "a@x.com", "Alice", phone(1)); err != nil {
		t.Fatalf("AddContact a: %v", err)
	}
	session.email = "b@x.com"
	if _, err := contacts.AddContact(ctx, "b@x.com", "Alice", phone(1)); err != nil {
		t.Fatalf("AddContact b with same phone: %v", err)
	}
}

func TestContactService_RequiresOwnerSession(t *testing.T) {
	ctx := context.Background()
	session := &testSession{email: "a@x.com"}
	contacts := newTestContactService(t, memory.NewStore(), session)

	c, err := contacts.AddContact(ctx, "a@x.com", "Alice", phone(1))
	if err != nil {
		t.Fatalf("AddContact: %v", err)
	}

	if _, err := contacts.AddContact(ctx, "b@x.com", "Bobby", phone(2)); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("AddContact for other owner error = %v, want ErrUnauthorized", err)
	}

	session.email = "b@x.com"
	if _, err := contacts.UpdateContact(ctx, c.ID, domain.ContactUpdate{Name: "Alicia", PhoneNumber: phone(1)}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("UpdateContact error = %v, want ErrUnauthorized", err)
	}
	if err := contacts.DeleteContact(ctx, c.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("DeleteContact error = %v, want ErrUnauthorized", err)
	}

	session.email = ""
	if _, err := contacts.AddContact(ctx, "a@x.com", "Bobby", phone(2)); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("anonymous AddContact error = %v, want ErrUnauthorized", err)
	}

	if n := len(contacts.All()); n != 1 {
		t.Errorf("contacts = %d, want 1", n)
	}
}

func TestContactService_DeleteRenumbers(t *testing.T) {
	ctx := context.Background()
	_, contacts := newLoggedInServices(t, newTestStore(t))

	var ids []string
	for i, name := range []string{"First", "Second", "Third"} {
		c, err := contacts.AddContact(ctx, testEmail, name, phone(i))
		if err != nil {
			t.Fatalf("AddContact: %v", err)
		}
		ids = append(ids, c.ID)
	}

	if err := contacts.DeleteContact(ctx, ids[1]); err != nil {
		t.Fatalf("DeleteContact: %v", err)
	}

	got := contacts.ListForOwner(testEmail)
	if len(got) != 2 {
		t.Fatalf("contacts = %d, want 2", len(got))
	}
	if got[0].Name != "First" || got[0].Order != 1 {
		t.Errorf("got[0] = %s/%d, want First/1", got[0].Name, got[0].Order)
	}
	if got[1].Name != "Third" || got[1].Order != 2 {
		t.Errorf("got[1] = %s/%d, want Third/2", got[1].Name, got[1].Order)
	}
}

func TestContactService_DeleteMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, contacts := newLoggedInServices(t, store)
	for i := range 3 {
		if _, err := contacts.AddContact(ctx, testEmail, "Contact", phone(i)); err != nil {
			t.Fatalf("AddContact: %v", err)
		}
	}

	before, err := store.Get(ctx, domain.KeyContacts)
	if err != nil {
		t.Fatalf("Get before: %v", err)
	}
	if err := contacts.DeleteContact(ctx, "does-not-exist"); err != nil {
		t.Fatalf("DeleteContact: %v", err)
	}
	after, err := store.Get(ctx, domain.KeyContacts)
	if err != nil {
		t.Fatalf("Get after: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Errorf("persisted contacts changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestContactService_Update(t *testing.T) {
	ctx := context.Background()
	_, contacts := newLoggedInServices(t, memory.NewStore())

	c, err := contacts.AddContact(ctx, testEmail, "Alice", phone(1))
	if err != nil {
		t.Fatalf("AddContact: %v", err)
	}
	if _, err := contacts.AddContact(ctx, testEmail, "Bobby", phone(2)); err != nil {
		t.Fatalf("AddContact: %v", err)
	}

	// Keeping its own phone is not a duplicate.
	updated, err := contacts.UpdateContact(ctx, c.ID, domain.ContactUpdate{Name: "Alicia", PhoneNumber: phone(1)})
	if err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	if updated.Name != "Alicia" || updated.Order != 1 {
		t.Errorf("updated = %s/%d, want Alicia/1", updated.Name, updated.Order)
	}

	_, err = contacts.UpdateContact(ctx, c.ID, domain.ContactUpdate{Name: "Alicia", PhoneNumber: phone(2)})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Message != "Phone number already exists" {
		t.Errorf("UpdateContact to sibling phone error = %v, want duplicate phone", err)
	}

	if _, err := contacts.UpdateContact(ctx, "missing", domain.ContactUpdate{Name: "Nobody", PhoneNumber: phone(9)}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateContact missing error = %v, want ErrNotFound", err)
	}
}

func TestContactService_UpdateMovesOrder(t *testing.T) {
	ctx := context.Background()
	_, contacts := newLoggedInServices(t, memory.NewStore())

	var ids []string
	for i, name := range []string{"Anna", "Bert", "Cleo", "Dina"} {
		c, err := contacts.AddContact(ctx, testEmail, name, phone(i))
		if err != nil {
			t.Fatalf("AddContact: %v", err)
		}
		ids = append(ids, c.ID)
	}

	if _, err := contacts.UpdateContact(ctx, ids[3], domain.ContactUpdate{Name: "Dina", PhoneNumber: phone(3), Order: 1}); err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	got := ordersByID(contacts.All())
	want := map[string]int{ids[0]: 2, ids[1]: 3, ids[2]: 4, ids[3]: 1}
	for id, o := range want {
		if got[id] != o {
			t.Errorf("order[%s] = %d, want %d", id, got[id], o)
		}
	}

	if _, err := contacts.UpdateContact(ctx, ids[3], domain.ContactUpdate{Name: "Dina", PhoneNumber: phone(3), Order: 3}); err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	got = ordersByID(contacts.All())
	want = map[string]int{ids[0]: 1, ids[1]: 2, ids[2]: 4, ids[3]: 3}
	for id, o := range want {
		if got[id] != o {
			t.Errorf("order[%s] = %d, want %d", id, got[id], o)
		}
	}

	_, err := contacts.UpdateContact(ctx, ids[0], domain.ContactUpdate{Name: "Anna", PhoneNumber: phone(0), Order: 5})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "order" {
		t.Errorf("out of range order error = %v, want order ValidationError", err)
	}
	assertDense(t, contacts.All())
}

func TestContactService_OrderDensityAndIsolation(t *testing.T) {
	ctx := context.Background()
	session := &testSession{}
	contacts := newTestContactService(t, memory.NewStore(), session)
	owners := []string{"a@x.com", "b@x.com", "c@x.com"}
	rng := rand.New(rand.NewPCG(1, 2))

	next := 0
	for step := range 500 {
		owner := owners[rng.IntN(len(owners))]
		session.email = owner

		before := contacts.All()
		mine := contacts.ListForOwner(owner)

		switch op := rng.IntN(3); {
		case op == 0 || len(mine) == 0:
			next++
			if _, err := contacts.AddContact(ctx, owner, "Contact", phone(next)); err != nil {
				t.Fatalf("step %d AddContact: %v", step, err)
			}
		case op == 1:
			victim := mine[rng.IntN(len(mine))]
			if err := contacts.DeleteContact(ctx, victim.ID); err != nil {
				t.Fatalf("step %d DeleteContact: %v", step, err)
			}
		default:
			c := mine[rng.IntN(len(mine))]
			upd := domain.ContactUpdate{Name: c.Name, PhoneNumber: c.PhoneNumber, Order: rng.IntN(len(mine)) + 1}
			if _, err := contacts.UpdateContact(ctx, c.ID, upd); err != nil {
				t.Fatalf("step %d UpdateContact: %v", step, err)
			}
		}

		after := contacts.All()
		assertDense(t, after)

		afterOrders := ordersByID(after)
		for _, c := range before {
			if c.UserID != owner && afterOrders[c.ID] != c.Order {
				t.Fatalf("step %d: %s's contact %s changed order %d -> %d", step, c.UserID, c.ID, c.Order, afterOrders[c.ID])
			}
		}
	}
}

func TestContactService_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	auth, contacts := newLoggedInServices(t, store)

	for i := range 4 {
		if _, err := contacts.AddContact(ctx, testEmail, "Contact", phone(i)); err != nil {
			t.Fatalf("AddContact: %v", err)
		}
	}
	if err := contacts.DeleteContact(ctx, "c2"); err != nil {
		t.Fatalf("DeleteContact: %v", err)
	}
	want := contacts.All()
	wantUsers := auth.Users()

	reloadedAuth := newTestAuthService(t, store)
	reloaded := newTestContactService(t, store, reloadedAuth)

	if got := reloaded.All(); !slices.Equal(got, want) {
		t.Errorf("contacts after reload = %+v, want %+v", got, want)
	}
	if got := reloadedAuth.Users(); !slices.Equal(got, wantUsers) {
		t.Errorf("users after reload = %+v, want %+v", got, wantUsers)
	}
	if sess := reloadedAuth.Session(); !sess.IsAuthenticated {
		t.Error("session not restored")
	}
}

func TestContactService_StorageFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: memory.NewStore()}
	contacts := newTestContactService(t, store, &testSession{email: testEmail})

	c, err := contacts.AddContact(ctx, testEmail, "Alice", phone(1))
	if err != nil {
		t.Fatalf("AddContact: %v", err)
	}
	want := contacts.All()

	store.failing = true
	if _, err := contacts.AddContact(ctx, testEmail, "Bobby", phone(2)); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("AddContact error = %v, want ErrStorage", err)
	}
	if _, err := contacts.UpdateContact(ctx, c.ID, domain.ContactUpdate{Name: "Alicia", PhoneNumber: phone(1)}); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("UpdateContact error = %v, want ErrStorage", err)
	}
	if err := contacts.DeleteContact(ctx, c.ID); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("DeleteContact error = %v, want ErrStorage", err)
	}

	if got := contacts.All(); !slices.Equal(got, want) {
		t.Errorf("contacts = %+v, want %+v", got, want)
	}
}

func TestContactService_GetContact(t *testing.T) {
	ctx := context.Background()
	_, contacts := newLoggedInServices(t, memory.NewStore())
	c, err := contacts.AddContact(ctx, testEmail, "Alice", phone(1))
	if err != nil {
		t.Fatalf("AddContact: %v", err)
	}

	got, err := contacts.GetContact(c.ID)
	if err != nil {
		t.Fatalf("GetContact: %v", err)
	}
	if *got != *c {
		t.Errorf("GetContact = %+v, want %+v", got, c)
	}
	if _, err := contacts.GetContact("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetContact missing error = %v, want ErrNotFound", err)
	}
}
