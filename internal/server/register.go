package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"agroproposals/internal/validation"
	"agroproposals/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

const (
	minPasswordLength = 12

	// a freshly confirmed account lands on the proposal form after its first login
	firstProposalPath = "/new-proposal"
)

type registerForm struct {
	GivenName       string `form:"given_name"`
	FamilyName      string `form:"family_name"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

func (f *registerForm) trim() {
	f.GivenName = strings.TrimSpace(f.GivenName)
	f.FamilyName = strings.TrimSpace(f.FamilyName)
	f.Email = strings.TrimSpace(f.Email)
}

func (s *Service) handleGetRegister(w http.ResponseWriter, r *http.Request) {
	if identityFromContext(r.Context()).Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	err := s.renderTemplate(w, r, "page.register", registerPage(registerForm{}))
	if err != nil {
		s.logger.WithError(err).Error("failed to render register page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {
	var input registerForm
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := decoder.Decode(&input, r.PostForm); err != nil {
		s.logger.WithError(err).Warn("failed to decode registration form")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	input.trim()

	data := registerPage(input)

	if errs := validateRegistration(input); len(errs) > 0 {
		data.Error = "Please correct the highlighted fields to create your account."
		data.FieldErrors = errs
		s.rerenderRegister(w, r, data)
		return
	}

	_, err := s.cognitoClient.SignUp(r.Context(), &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(s.config.CognitoClientID),
		Username: aws.String(input.Email),
		Password: aws.String(input.Password),
		UserAttributes: []ctypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(input.Email)},
			{Name: aws.String("given_name"), Value: aws.String(input.GivenName)},
			{Name: aws.String("family_name"), Value: aws.String(input.FamilyName)},
		},
	})
	if err != nil {
		s.logger.WithError(err).WithField("email", input.Email).Warn("cognito sign up rejected")

		data.Error, data.FieldErrors = signUpFailure(err)
		s.rerenderRegister(w, r, data)
		return
	}

	s.logger.WithField("email", input.Email).Info("account created, awaiting confirmation")

	http.Redirect(w, r, "/register/confirm?"+url.Values{"email": {input.Email}}.Encode(), http.StatusSeeOther)
}

func (s *Service) rerenderRegister(w http.ResponseWriter, r *http.Request, data *types.RegisterPageData) {
	err := s.renderStatus(w, r, http.StatusUnprocessableEntity, "page.register", data)
	if err != nil {
		s.logger.WithError(err).Error("failed to render register page")
	}
}

func registerPage(input registerForm) *types.RegisterPageData {
	return &types.RegisterPageData{
		BasePageData: types.BasePageData{Title: "Create Account"},
		GivenName:    input.GivenName,
		FamilyName:   input.FamilyName,
		Email:        input.Email,
	}
}

func (s *Service) handleGetRegisterConfirm(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))

	data := &types.ConfirmRegisterPageData{
		BasePageData: types.BasePageData{Title: "Confirm Your Account"},
		Email:        email,
		Message:      "Enter the code we emailed to " + email + " to start submitting proposals.",
	}
	if email == "" {
		data.Message = "Enter the code we emailed you to start submitting proposals."
	}

	err := s.renderTemplate(w, r, "page.register.confirm", data)
	if err != nil {
		s.logger.WithError(err).Error("failed to render register confirm page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostRegisterConfirm(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	code := strings.TrimSpace(r.FormValue("code"))

	data := &types.ConfirmRegisterPageData{
		BasePageData: types.BasePageData{Title: "Confirm Your Account"},
		Email:        email,
	}

	if email == "" || code == "" {
		data.Error = "Enter both your email and the confirmation code."
		s.rerenderConfirm(w, r, data)
		return
	}

	_, err := s.cognitoClient.ConfirmSignUp(r.Context(), &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(s.config.CognitoClientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("cognito confirmation rejected")

		data.Error = confirmFailure(err)
		s.rerenderConfirm(w, r, data)
		return
	}

	s.setRedirectCookie(w, firstProposalPath, 30*time.Minute)
	http.Redirect(w, r, "/login?confirmed=true", http.StatusSeeOther)
}

func (s *Service) rerenderConfirm(w http.ResponseWriter, r *http.Request, data *types.ConfirmRegisterPageData) {
	err := s.renderStatus(w, r, http.StatusUnprocessableEntity, "page.register.confirm", data)
	if err != nil {
		s.logger.WithError(err).Error("failed to render register confirm page")
	}
}

func validateRegistration(f registerForm) map[string]string {
	errs := map[string]string{}

	if f.GivenName == "" {
		errs["given_name"] = "Tell us your first name."
	}
	if f.FamilyName == "" {
		errs["family_name"] = "Tell us your last name."
	}

	switch {
	case f.Email == "":
		errs["email"] = "Email is required, you will sign in with it."
	case !validation.ValidEmail(f.Email):
		errs["email"] = "Invalid email format"
	}

	if missing := passwordShortfalls(f.Password); len(missing) > 0 {
		errs["password"] = "Password needs " + strings.Join(missing, ", ") + "."
	} else if f.Password != f.ConfirmPassword {
		errs["confirm_password"] = "The two passwords do not match."
	}

	return errs
}

// passwordShortfalls lists what the password lacks against the user pool policy.
func passwordShortfalls(pw string) []string {
	var upper, lower, digit, symbol bool
	for _, c := range pw {
		switch {
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsLower(c):
			lower = true
		case unicode.IsDigit(c):
			digit = true
		default:
			symbol = true
		}
	}

	var missing []string
	if len([]rune(pw)) < minPasswordLength {
		missing = append(missing, "at least 12 characters")
	}
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if !digit {
		missing = append(missing, "a number")
	}
	if !symbol {
		missing = append(missing, "a symbol")
	}

	return missing
}

func signUpFailure(err error) (string, map[string]string) {
	var (
		invalidPassword *ctypes.InvalidPasswordException
		exists          *ctypes.UsernameExistsException
		invalidParam    *ctypes.InvalidParameterException
	)

	switch {
	case errors.As(err, &invalidPassword):
		return "Please choose a stronger password.", map[string]string{
			"password": "Password does not meet the account policy.",
		}
	case errors.As(err, &exists):
		return "This email already has an account, log in to see your proposals.", map[string]string{
			"email": "An account with this email already exists.",
		}
	case errors.As(err, &invalidParam):
		return "Some of your details were not accepted, please review them.", map[string]string{}
	default:
		return "We could not create your account right now, please try again.", map[string]string{}
	}
}

func confirmFailure(err error) string {
	var (
		mismatch *ctypes.CodeMismatchException
		expired  *ctypes.ExpiredCodeException
	)

	switch {
	case errors.As(err, &mismatch):
		return "Invalid confirmation code. Check the email we sent and try again."
	case errors.As(err, &expired):
		return "That confirmation code has expired, register again to get a new one."
	default:
		return "We could not confirm your account right now, please try again."
	}
}
