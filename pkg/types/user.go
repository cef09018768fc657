package types

// Identity is the authenticated caller. Every storage and repository call
// receives one explicitly instead of looking up the session itself.
type Identity struct {
	ID       string
	Email    string
	Metadata map[string]string
}

func (i *Identity) Authenticated() bool {
	return i != nil && i.ID != ""
}

// DisplayName prefers the full name claim and falls back to given/family names.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}

	if name := i.Metadata["name"]; name != "" {
		return name
	}

	given, family := i.Metadata["given_name"], i.Metadata["family_name"]
	switch {
	case given != "" && family != "":
		return given + " " + family
	case given != "":
		return given
	default:
		return family
	}
}
