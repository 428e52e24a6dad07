package handler

import (
	"github.com/msomdec/contact-book/internal/domain"
	"github.com/msomdec/contact-book/internal/projection"
)

// UserDTO is the JSON representation of a user. The stored password never
// leaves the server.
type UserDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{ID: u.ID, Name: u.Name, Email: u.Email}
}

// ContactDTO is the JSON representation of a contact.
type ContactDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Order       int    `json:"order"`
}

func toContactDTO(c *domain.Contact) ContactDTO {
	return ContactDTO{
		ID:          c.ID,
		Name:        c.Name,
		PhoneNumber: c.PhoneNumber,
		Order:       c.Order,
	}
}

func toContactDTOs(contacts []domain.Contact) []ContactDTO {
	dtos := make([]ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = toContactDTO(&contacts[i])
	}
	return dtos
}

// PageDTO is one projected page of the contact list. It doubles as the
// datastar signal set patched into the browser.
type PageDTO struct {
	Items      []ContactDTO `json:"items"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
	TotalItems int          `json:"totalItems"`
	StartIndex int          `json:"startIndex"`
	SortBy     string       `json:"sortBy"`
	SortDir    string       `json:"sortDir"`
}

func toPageDTO(p projection.Page, page int, sort projection.Sort) PageDTO {
	return PageDTO{
		Items:      toContactDTOs(p.Items),
		Page:       page,
		TotalPages: p.TotalPages,
		TotalItems: p.TotalItems,
		StartIndex: p.StartIndex,
		SortBy:     string(sort.Key),
		SortDir:    string(sort.Dir),
	}
}
