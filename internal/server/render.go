package server

import (
	"net/http"

	"agroproposals/pkg/types"
)

func (s *Service) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) error {
	return s.renderStatus(w, r, http.StatusOK, templateName, data)
}

// renderStatus renders a page with a non 200 status, used when a form is
// shown again with errors.
func (s *Service) renderStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) error {
	identity := identityFromContext(r.Context())

	if setter, ok := data.(types.NavbarDataSetter); ok {
		navbar := types.NavbarData{IsAuthenticated: identity.Authenticated()}
		if identity != nil {
			navbar.UserID = identity.ID
			navbar.UserEmail = identity.Email
			navbar.UserName = identity.DisplayName()
		}
		setter.SetNavbarData(navbar)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	return s.templates.ExecuteTemplate(w, templateName, data)
}
