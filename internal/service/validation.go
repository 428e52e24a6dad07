package service

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/msomdec/contact-book/internal/domain"
)

// rule is one predicate of a field's validation table.
type rule struct {
	message string
	valid   func(value string) bool
}

type field struct {
	name  string
	value string
	rules []rule
}

// firstViolation walks fields and their rules in declaration order and
// reports the first failure.
func firstViolation(fields ...field) error {
	for _, f := range fields {
		for _, r := range f.rules {
			if !r.valid(f.value) {
				return &domain.ValidationError{Field: f.name, Message: r.message}
			}
		}
	}
	return nil
}

var (
	emailPattern     = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)
	userNamePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9\- ]*$`)
	phoneAreaPattern = regexp.MustCompile(`^01[0125]`)
	digitsPattern    = regexp.MustCompile(`^\d+$`)
	specialChars     = `!@#$%^&*(),.?":{}|<>`
)

const (
	minNameLength = 3
	phoneLength   = 11
)

func required(v string) bool { return strings.TrimSpace(v) != "" }

func minLength(n int) func(string) bool {
	return func(v string) bool { return utf8.RuneCountInString(v) >= n }
}

func matches(re *regexp.Regexp) func(string) bool {
	return re.MatchString
}

func registrationFields(reg domain.Registration) []field {
	return []field{
		{name: "name", value: reg.Name, rules: []rule{
			{"Full Name is required", required},
			{"Name must be at least 3 characters", minLength(minNameLength)},
			{"Name cannot start with a number", func(v string) bool {
				r, _ := utf8.DecodeRuneInString(v)
				return !unicode.IsDigit(r)
			}},
			{"Name can only contain letters, numbers, spaces, and hyphens", matches(userNamePattern)},
		}},
		emailField(reg.Email),
		passwordField(reg.Password),
	}
}

func loginFields(email, password string) []field {
	return []field{
		emailField(email),
		{name: "password", value: password, rules: []rule{
			{"Password is required", required},
		}},
	}
}

func emailField(email string) field {
	return field{name: "email", value: email, rules: []rule{
		{"Email is required", required},
		{"Invalid email address", matches(emailPattern)},
	}}
}

func passwordField(password string) field {
	missing := missingPasswordClasses(password)
	return field{name: "password", value: password, rules: []rule{
		{"Password is required", required},
		{"Password must contain: " + strings.Join(missing, ", "), func(string) bool { return len(missing) == 0 }},
	}}
}

func missingPasswordClasses(v string) []string {
	var missing []string
	if utf8.RuneCountInString(v) < 8 {
		missing = append(missing, "at least 8 characters")
	}
	if !strings.ContainsFunc(v, unicode.IsUpper) {
		missing = append(missing, "one uppercase letter")
	}
	if !strings.ContainsFunc(v, unicode.IsLower) {
		missing = append(missing, "one lowercase letter")
	}
	if !strings.ContainsAny(v, specialChars) {
		missing = append(missing, "one special character")
	}
	return missing
}

// contactFields validates a contact form. phone is the local number without
// the country prefix; siblings are the owner's other contacts.
func contactFields(name, phone string, siblings []domain.Contact) []field {
	return []field{
		{name: "name", value: name, rules: []rule{
			{"Name is required", required},
			{"Name must be at least 3 characters", minLength(minNameLength)},
		}},
		{name: "phoneNumber", value: phone, rules: []rule{
			{"Phone number is required", required},
			{"Phone number must start with 010, 011, 012, or 015", matches(phoneAreaPattern)},
			{"Phone number must be exactly 11 digits", func(v string) bool { return len(v) == phoneLength }},
			{"Phone number must contain only digits", matches(digitsPattern)},
			{"Phone number already exists", func(v string) bool {
				full := domain.PhonePrefix + v
				return !slices.ContainsFunc(siblings, func(c domain.Contact) bool { return c.PhoneNumber == full })
			}},
		}},
	}
}

// localPhone strips the country prefix so callers may submit either form.
func localPhone(phone string) string {
	return strings.TrimPrefix(strings.TrimSpace(phone), domain.PhonePrefix)
}
