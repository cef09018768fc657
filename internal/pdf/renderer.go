package pdf

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	documentTitle = "Agricultural Proposal"

	pageMargin     = 20.0
	labelWidth     = 35.0
	rowHeight      = 10.0
	signatureMaxW  = 80.0
	signatureMaxH  = 30.0
	signatureImage = "signature"

	fontFamily = "DejaVu"
)

// Text is drawn with an embedded UTF-8 font so names outside cp1252
// (Polish, Cyrillic, Greek, ...) survive. DejaVu has no CJK glyphs.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	regularFont []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	boldFont []byte
)

var ErrUnsupportedSignature = errors.New("signature must be a png or jpeg image")

// Document is everything that ends up on the rendered proposal page.
type Document struct {
	Area      string
	Plant     string
	Name      string
	Email     string
	Signature []byte
}

func (d Document) rows() [][2]string {
	return [][2]string{
		{"Area", d.Area},
		{"Plant", d.Plant},
		{"Name", d.Name},
		{"Email", d.Email},
	}
}

type Renderer struct {
	// Compress toggles stream compression, tests switch it off to read the page content.
	Compress bool
	Clock    func() time.Time
}

func NewRenderer() *Renderer {
	return &Renderer{
		Compress: true,
		Clock:    time.Now,
	}
}

// Render lays the proposal out on a single A4 page and returns the PDF bytes.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	clock := r.Clock
	if clock == nil {
		clock = time.Now
	}
	now := clock().UTC()

	p := fpdf.New("P", "mm", "A4", "")
	p.SetCompression(r.Compress)
	p.SetCatalogSort(true)
	p.SetCreationDate(now)
	p.SetModificationDate(now)
	p.SetTitle(documentTitle, true)
	p.SetCreator("agroproposals", true)
	p.SetMargins(pageMargin, pageMargin, pageMargin)
	p.SetAutoPageBreak(false, pageMargin)
	p.AddUTF8FontFromBytes(fontFamily, "", regularFont)
	p.AddUTF8FontFromBytes(fontFamily, "B", boldFont)
	if p.Err() {
		return nil, fmt.Errorf("failed to load proposal font: %w", p.Error())
	}
	p.AddPage()

	pageW, _ := p.GetPageSize()
	contentW := pageW - 2*pageMargin

	p.SetFont(fontFamily, "B", 20)
	p.CellFormat(contentW, 14, documentTitle, "", 1, "L", false, 0, "")
	p.Ln(6)

	for _, row := range doc.rows() {
		p.SetFont(fontFamily, "B", 12)
		p.CellFormat(labelWidth, rowHeight, row[0]+":", "", 0, "L", false, 0, "")
		p.SetFont(fontFamily, "", 12)
		p.CellFormat(contentW-labelWidth, rowHeight, row[1], "", 1, "L", false, 0, "")
	}

	if len(doc.Signature) > 0 {
		if err := placeSignature(p, doc.Signature); err != nil {
			return nil, err
		}
	}

	if p.Err() {
		return nil, fmt.Errorf("failed to render proposal pdf: %w", p.Error())
	}

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write proposal pdf: %w", err)
	}

	return buf.Bytes(), nil
}

func placeSignature(p *fpdf.Fpdf, signature []byte) error {
	imageType := signatureType(signature)
	if imageType == "" {
		return ErrUnsupportedSignature
	}

	opts := fpdf.ImageOptions{ImageType: imageType}
	info := p.RegisterImageOptionsReader(signatureImage, opts, bytes.NewReader(signature))
	if p.Err() || info == nil {
		return fmt.Errorf("failed to read signature image: %w", p.Error())
	}

	w, h := fitBox(info.Width(), info.Height(), signatureMaxW, signatureMaxH)

	p.Ln(8)
	p.SetFont(fontFamily, "B", 12)
	p.CellFormat(labelWidth, rowHeight, "Signature:", "", 1, "L", false, 0, "")

	p.ImageOptions(signatureImage, pageMargin, p.GetY()+2, w, h, false, opts, 0, "")

	return nil
}

// fitBox scales w x h down (or up) to the largest size inside maxW x maxH
// that keeps the aspect ratio.
func fitBox(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}

	scale := math.Min(maxW/w, maxH/h)
	return w * scale, h * scale
}

func signatureType(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")):
		return "PNG"
	case bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}):
		return "JPG"
	default:
		return ""
	}
}
