package validation

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"

	"agroproposals/pkg/types"
)

const MaxFieldLength = 100

// FieldErrors maps a form field name to a message shown next to the field.
// An empty FieldErrors means the input is valid.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, f[k]))
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

func (f FieldErrors) Valid() bool {
	return len(f) == 0
}

// Proposal checks every field and reports all violations at once.
func Proposal(fields types.ProposalFields) FieldErrors {
	errs := FieldErrors{}

	requiredText(errs, "area", "Area", fields.Area)
	requiredText(errs, "plant", "Plant", fields.Plant)
	requiredText(errs, "name", "Name", fields.Name)

	if fields.Email == "" {
		errs["email"] = "Email is required"
	} else if !ValidEmail(fields.Email) {
		errs["email"] = "Invalid email format"
	}

	return errs
}

func requiredText(errs FieldErrors, key, label, value string) {
	switch {
	case value == "":
		errs[key] = label + " is required"
	case utf8.RuneCountInString(value) > MaxFieldLength:
		errs[key] = fmt.Sprintf("%s must be less than %d characters", label, MaxFieldLength)
	}
}

// ValidEmail accepts a bare address only, "Jane <jane@example.com>" is rejected.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}

	if addr.Name != "" || addr.Address != email {
		return false
	}

	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1
}
