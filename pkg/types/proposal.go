package types

import "time"

// Proposal is a single farmer proposal owned by one authenticated user.
type Proposal struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Area      string    `db:"area"`
	Plant     string    `db:"plant"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	PDFURL    *string   `db:"pdf_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p *Proposal) Fields() ProposalFields {
	return ProposalFields{
		Area:  p.Area,
		Plant: p.Plant,
		Name:  p.Name,
		Email: p.Email,
	}
}

// ProposalFields are the user editable values of a proposal, decoded
// straight off the proposal form.
type ProposalFields struct {
	Area  string `db:"area" form:"area" json:"area"`
	Plant string `db:"plant" form:"plant" json:"plant"`
	Name  string `db:"name" form:"name" json:"name"`
	Email string `db:"email" form:"email" json:"email"`
}
