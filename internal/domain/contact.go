package domain

// PhonePrefix is the country code prepended to every stored phone number.
const PhonePrefix = "+2"

// Contact is an entry in a user's contact list. UserID is the owner's email.
// Order is the dense 1-based rank among the owner's contacts.
type Contact struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Order       int    `json:"order"`
}

// ContactUpdate carries the editable fields of a contact. A zero Order keeps
// the contact's current rank.
type ContactUpdate struct {
	Name        string
	PhoneNumber string
	Order       int
}
