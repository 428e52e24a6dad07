package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/msomdec/contact-book/internal/domain"
)

// SessionReader exposes the authentication state contacts operations are
// checked against.
type SessionReader interface {
	Session() domain.Session
}

// ContactService owns the contact collection for every user and keeps each
// owner's Order values dense (1..N).
type ContactService struct {
	store   domain.Store
	session SessionReader
	newID   func() string

	mu       sync.Mutex
	contacts []domain.Contact
}

// ContactOption customizes a ContactService.
type ContactOption func(*ContactService)

// WithContactIDs replaces the uuid generator used for new contacts.
func WithContactIDs(newID func() string) ContactOption {
	return func(s *ContactService) { s.newID = newID }
}

// NewContactService creates a ContactService and loads the collection from store.
func NewContactService(ctx context.Context, store domain.Store, session SessionReader, opts ...ContactOption) (*ContactService, error) {
	s := &ContactService{
		store:   store,
		session: session,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := load(ctx, store, domain.KeyContacts, &s.contacts); err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	return s, nil
}

// AddContact validates and appends a contact at the end of the owner's order.
// phone may be given with or without the country prefix.
func (s *ContactService) AddContact(ctx context.Context, ownerID, name, phone string) (*domain.Contact, error) {
	if err := s.authorize(ownerID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	local := localPhone(phone)
	siblings := s.ownedBy(ownerID, "")
	if err := firstViolation(contactFields(name, local, siblings)...); err != nil {
		return nil, err
	}

	c := domain.Contact{
		ID:          s.newID(),
		UserID:      ownerID,
		Name:        name,
		PhoneNumber: domain.PhonePrefix + local,
		Order:       len(siblings) + 1,
	}
	next := append(slices.Clone(s.contacts), c)

	if err := s.commit(ctx, next); err != nil {
		return nil, fmt.Errorf("add contact: %w", err)
	}
	slog.Debug("contact added", "owner", ownerID, "order", c.Order)
	return &c, nil
}

// UpdateContact replaces the editable fields of contact id. When upd.Order is
// set the contact moves to that rank and its siblings shift to keep 1..N.
func (s *ContactService) UpdateContact(ctx context.Context, id string, upd domain.ContactUpdate) (*domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	existing := s.contacts[i]
	if err := s.authorize(existing.UserID); err != nil {
		return nil, err
	}

	local := localPhone(upd.PhoneNumber)
	siblings := s.ownedBy(existing.UserID, id)
	if err := firstViolation(contactFields(upd.Name, local, siblings)...); err != nil {
		return nil, err
	}
	if upd.Order != 0 && (upd.Order < 1 || upd.Order > len(siblings)+1) {
		return nil, &domain.ValidationError{
			Field:   "order",
			Message: fmt.Sprintf("Order must be between 1 and %d", len(siblings)+1),
		}
	}

	next := slices.Clone(s.contacts)
	if upd.Order != 0 && upd.Order != existing.Order {
		moveRank(next, existing.UserID, id, existing.Order, upd.Order)
	}
	next[i].Name = upd.Name
	next[i].PhoneNumber = domain.PhonePrefix + local

	if err := s.commit(ctx, next); err != nil {
		return nil, fmt.Errorf("update contact %s: %w", id, err)
	}
	c := next[i]
	return &c, nil
}

// DeleteContact removes contact id and renumbers the owner's remaining
// contacts. Deleting an unknown id is a no-op and writes nothing.
func (s *ContactService) DeleteContact(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	owner := s.contacts[i].UserID
	if err := s.authorize(owner); err != nil {
		return err
	}

	next := slices.Delete(slices.Clone(s.contacts), i, i+1)
	renumber(next, owner)

	if err := s.commit(ctx, next); err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	slog.Debug("contact deleted", "owner", owner)
	return nil
}

// ListForOwner returns the owner's contacts in storage order.
func (s *ContactService) ListForOwner(ownerID string) []domain.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownedBy(ownerID, "")
}

// GetContact returns a copy of contact id.
func (s *ContactService) GetContact(id string) (*domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	c := s.contacts[i]
	return &c, nil
}

// All returns a copy of the full collection in storage order.
func (s *ContactService) All() []domain.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contacts)
}

func (s *ContactService) authorize(ownerID string) error {
	sess := s.session.Session()
	if !sess.IsAuthenticated || sess.CurrentUser == nil || sess.CurrentUser.Email != ownerID {
		return domain.ErrUnauthorized
	}
	return nil
}

// commit persists next and swaps it in. Caller holds s.mu.
func (s *ContactService) commit(ctx context.Context, next []domain.Contact) error {
	m, err := encode(domain.KeyContacts, next)
	if err != nil {
		return err
	}
	if err := persist(ctx, s.store, m); err != nil {
		return err
	}
	s.contacts = next
	return nil
}

func (s *ContactService) indexOf(id string) int {
	return slices.IndexFunc(s.contacts, func(c domain.Contact) bool { return c.ID == id })
}

// ownedBy copies the owner's contacts, skipping excludeID.
func (s *ContactService) ownedBy(ownerID, excludeID string) []domain.Contact {
	var out []domain.Contact
	for _, c := range s.contacts {
		if c.UserID == ownerID && c.ID != excludeID {
			out = append(out, c)
		}
	}
	return out
}

// renumber rewrites the owner's Order values as 1..N following their current
// relative order. Other owners' records and storage positions are untouched.
func renumber(contacts []domain.Contact, ownerID string) {
	var idx []int
	for i, c := range contacts {
		if c.UserID == ownerID {
			idx = append(idx, i)
		}
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(contacts[a].Order, contacts[b].Order)
	})
	for rank, i := range idx {
		contacts[i].Order = rank + 1
	}
}

// moveRank moves contact id from rank `from` to rank `to`, shifting the
// owner's contacts in between by one.
func moveRank(contacts []domain.Contact, ownerID, id string, from, to int) {
	for i := range contacts {
		c := &contacts[i]
		if c.UserID != ownerID {
			continue
		}
		switch {
		case c.ID == id:
			c.Order = to
		case from < to && c.Order > from && c.Order <= to:
			c.Order--
		case to < from && c.Order >= to && c.Order < from:
			c.Order++
		}
	}
}
