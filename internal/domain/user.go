package domain

// User is a registered account. The password field holds whatever the
// configured PasswordHasher produced; plaintext by default.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the candidate submitted on sign-up.
type Registration struct {
	Name     string
	Email    string
	Password string
}

// Session is the authentication state. IsAuthenticated is true iff
// CurrentUser is non-nil.
type Session struct {
	CurrentUser     *User
	IsAuthenticated bool
}
