package types

type NavbarData struct {
	IsAuthenticated bool
	UserID          string
	UserEmail       string
	UserName        string
}

type NavbarDataSetter interface {
	SetNavbarData(data NavbarData)
}

type BasePageData struct {
	Title  string
	Navbar NavbarData
}

func (d *BasePageData) SetNavbarData(data NavbarData) {
	d.Navbar = data
}

type HomePageData struct {
	BasePageData
	Notice string
	Error  string
}

type LoginPageData struct {
	BasePageData
	Message string
	Error   string
	Email   string
}

type RegisterPageData struct {
	BasePageData
	GivenName   string
	FamilyName  string
	Email       string
	Error       string
	FieldErrors map[string]string
}

type ConfirmRegisterPageData struct {
	BasePageData
	Email   string
	Error   string
	Message string
}

type DashboardPageData struct {
	BasePageData
	Notice    string
	Error     string
	Proposals []*Proposal
}

// ProposalFormPageData backs both the new and the edit form. Fields always
// hold what the user last entered so a failed submission loses nothing.
type ProposalFormPageData struct {
	BasePageData
	ProposalID  string
	Editing     bool
	Fields      ProposalFields
	PDFURL      string
	Error       string
	FieldErrors map[string]string
}

type ProfilePageData struct {
	BasePageData
	UserID        string
	UserEmail     string
	DisplayName   string
	ProposalCount int
}

// ProposalForm is the decoded POST body of the proposal form. Signature is
// the canvas export, a PNG data URL, or empty when nothing was drawn.
type ProposalForm struct {
	ID        string `form:"id"`
	Area      string `form:"area"`
	Plant     string `form:"plant"`
	Name      string `form:"name"`
	Email     string `form:"email"`
	Signature string `form:"signature"`
}

func (f *ProposalForm) Fields() ProposalFields {
	return ProposalFields{
		Area:  f.Area,
		Plant: f.Plant,
		Name:  f.Name,
		Email: f.Email,
	}
}
