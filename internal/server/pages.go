package server

import (
	"net/http"
	"net/url"
	"strings"

	"agroproposals/pkg/types"
)

func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {
	data := &types.HomePageData{
		BasePageData: types.BasePageData{Title: "Agro Proposals"},
		Notice:       strings.TrimSpace(r.URL.Query().Get("notice")),
		Error:        strings.TrimSpace(r.URL.Query().Get("error")),
	}

	if err := s.renderTemplate(w, r, "page.home", data); err != nil {
		s.logger.WithError(err).Error("failed to render home page")
		return
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)

	data := &types.DashboardPageData{
		BasePageData: types.BasePageData{Title: "Dashboard"},
		Notice:       strings.TrimSpace(r.URL.Query().Get("notice")),
		Error:        strings.TrimSpace(r.URL.Query().Get("error")),
	}

	proposals, err := s.proposals.List(ctx, identity)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.ID).Error("failed to fetch proposals for dashboard")
		data.Error, _ = userMessage(err)
	}
	data.Proposals = proposals

	if err := s.renderTemplate(w, r, "page.dashboard", data); err != nil {
		s.logger.WithError(err).Error("failed to render dashboard page")
		return
	}
}

func (s *Service) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)

	data := &types.ProfilePageData{
		BasePageData: types.BasePageData{Title: "My Profile"},
		UserID:       identity.ID,
		UserEmail:    identity.Email,
		DisplayName:  identity.DisplayName(),
	}

	proposals, err := s.proposals.List(ctx, identity)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.ID).Warn("failed to count proposals for profile")
	}
	data.ProposalCount = len(proposals)

	if err := s.renderTemplate(w, r, "page.profile", data); err != nil {
		s.logger.WithError(err).Error("failed to render profile page")
		return
	}
}

func (s *Service) redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	v := url.Values{}
	v.Set("notice", notice)
	http.Redirect(w, r, path+"?"+v.Encode(), http.StatusSeeOther)
}

func (s *Service) redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	v := url.Values{}
	v.Set("error", msg)
	http.Redirect(w, r, path+"?"+v.Encode(), http.StatusSeeOther)
}
