package server

import (
	"context"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"agroproposals/internal/metrics"
	"agroproposals/internal/proposal"
	"agroproposals/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

type CognitoClient interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cognitoidentityprovider.ConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
}

type IdentityVerifier interface {
	Verify(ctx context.Context, accessToken string) (*types.Identity, error)
}

type ProposalService interface {
	Submit(ctx context.Context, identity *types.Identity, sub proposal.Submission) (*proposal.Result, error)
	Delete(ctx context.Context, identity *types.Identity, proposalID string) error
	List(ctx context.Context, identity *types.Identity) ([]*types.Proposal, error)
	Get(ctx context.Context, identity *types.Identity, proposalID string) (*types.Proposal, error)
}

type DocumentGateway interface {
	PutEncoded(ctx context.Context, ownerID, fileName, payload string) (string, error)
	ReplaceEncoded(ctx context.Context, ownerID, fileName, payload, oldURL string) (string, error)
	Remove(ctx context.Context, ownerID, url string) error
	ResolveURL(key string) string
}

type Service struct {
	logger    *logrus.Logger
	config    *types.Config
	templates *template.Template

	cognitoClient CognitoClient
	verifier      IdentityVerifier
	cookie        *securecookie.SecureCookie

	proposals ProposalService
	documents DocumentGateway

	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	files    http.Handler

	server *http.Server
}

// New wires the HTTP surface. files is optional and serves stored PDFs under
// /files when the storage backend keeps them in process.
func New(
	config *types.Config,
	logger *logrus.Logger,
	cognitoClient CognitoClient,
	verifier IdentityVerifier,
	proposals ProposalService,
	documents DocumentGateway,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	files http.Handler,
) (*Service, error) {
	mux := flow.New()

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil || len(hashKey) == 0 {
		return nil, errors.New("cookie hash key must be set and base64 encoded")
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie block key: %w", err)
	}

	s := &Service{
		logger:        logger,
		config:        config,
		cognitoClient: cognitoClient,
		verifier:      verifier,
		cookie:        securecookie.New(hashKey, blockKey),

		proposals: proposals,
		documents: documents,

		metrics:  m,
		gatherer: gatherer,
		files:    files,

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.buildRouter(mux)

	// flow only runs middleware on matched routes, "/dashboard/" never matches
	s.server.Handler = s.StripTrailingSlash(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.LoggingMiddleware)
	r.Use(s.LoadIdentity)

	r.HandleFunc("/", s.handleHome, http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/register", s.handleGetRegister, http.MethodGet)
	r.HandleFunc("/register", s.handlePostRegister, http.MethodPost)
	r.HandleFunc("/register/confirm", s.handleGetRegisterConfirm, http.MethodGet)
	r.HandleFunc("/register/confirm", s.handlePostRegisterConfirm, http.MethodPost)
	r.HandleFunc("/login", s.handleGetLogin, http.MethodGet)
	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/dashboard", s.handleGetDashboard, http.MethodGet)
		r.HandleFunc("/new-proposal", s.handleGetProposalForm, http.MethodGet)
		r.HandleFunc("/new-proposal", s.handlePostProposalForm, http.MethodPost)
		r.HandleFunc("/proposals/:id/delete", s.handlePostDeleteProposal, http.MethodPost)
		r.HandleFunc("/profile", s.handleGetProfile, http.MethodGet)
	})

	r.HandleFunc("/api/pdf/url", s.handleGetPDFURL, http.MethodGet)
	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAPIAuth)

		r.HandleFunc("/api/pdf", s.handlePostPDF, http.MethodPost)
		r.HandleFunc("/api/pdf", s.handleDeletePDF, http.MethodDelete)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}), http.MethodGet)
	}

	if s.files != nil {
		r.Handle("/files/...", http.StripPrefix("/files", s.files), http.MethodGet)
	}

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		s.logger.WithError(err).Fatal("failed to mount static assets")
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"date": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}
