package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/retropress/retropress/internal/config"
	"github.com/retropress/retropress/pkg/models"
)

// Layout constants in millimetres for the A3 page.
const (
	pageMargin    = 14.0
	columnGap     = 6.0
	mastheadSize  = 34.0
	headlineSize  = 18.0
	subHeadSize   = 12.0
	bodySize      = 9.0
	smallSize     = 7.5
	mainImageH    = 95.0
	subImageH     = 52.0
	ruleThickness = 0.8
)

// Renderer lays out a generated front page as a single-page PDF.
type Renderer struct {
	cfg    config.PDFConfig
	logger *slog.Logger
}

func New(cfg config.PDFConfig, logger *slog.Logger) *Renderer {
	return &Renderer{
		cfg:    cfg,
		logger: logger.With("component", "render"),
	}
}

// Filename returns the download name for a rendered page.
func Filename(bundle *models.ArticleBundle) string {
	return fmt.Sprintf("retropress-%s.pdf", bundle.Date.Format("2006-01-02"))
}

// Render produces the PDF bytes for a complete bundle and its image set.
// The image set must cover the bundle's slots; absent slots are drawn as
// framed captions rather than failing the whole page.
func (r *Renderer) Render(bundle *models.ArticleBundle, images *models.ImageSet) ([]byte, error) {
	if bundle == nil {
		return nil, fmt.Errorf("cannot render a nil bundle")
	}
	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("bundle is not renderable: %w", err)
	}
	if images == nil {
		return nil, fmt.Errorf("cannot render without an image set")
	}
	if images.SlotCount() != 1+len(bundle.SubArticles) {
		return nil, fmt.Errorf("image set has %d slots, bundle needs %d",
			images.SlotCount(), 1+len(bundle.SubArticles))
	}

	pdf := fpdf.New("P", "mm", r.pageSize(), "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)

	font := r.installFont(pdf)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin

	r.drawMasthead(pdf, font, bundle, contentW)
	r.drawDateStrip(pdf, font, bundle, contentW)
	r.drawMainArticle(pdf, font, bundle, images, contentW)
	r.drawSubArticles(pdf, font, bundle, images, contentW)
	r.drawLowerStrip(pdf, font, bundle, contentW)
	r.drawFooter(pdf, font, bundle, contentW)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	r.logger.Info("Rendered front page",
		"date", bundle.Date.Format("2006-01-02"),
		"bytes", buf.Len())
	return buf.Bytes(), nil
}

func (r *Renderer) pageSize() string {
	if r.cfg.PageSize != "" {
		return r.cfg.PageSize
	}
	return "A3"
}

// installFont registers the configured UTF-8 font, falling back to a core
// font when none is configured. Returns the family name to use.
func (r *Renderer) installFont(pdf *fpdf.Fpdf) string {
	if r.cfg.FontPath == "" {
		return "Helvetica"
	}
	pdf.AddUTF8Font("vintage", "", r.cfg.FontPath)
	pdf.AddUTF8Font("vintage", "B", r.cfg.FontPath)
	return "vintage"
}

func (r *Renderer) drawMasthead(pdf *fpdf.Fpdf, font string, bundle *models.ArticleBundle, contentW float64) {
	pdf.SetFont(font, "B", mastheadSize)
	pdf.CellFormat(contentW, 16, bundle.Masthead, "", 1, "C", false, 0, "")
	pdf.SetLineWidth(ruleThickness)
	y := pdf.GetY() + 1
	pdf.Line(pageMargin, y, pageMargin+contentW, y)
	pdf.SetY(y + 2)
}

func (r *Renderer) drawDateStrip(pdf *fpdf.Fpdf, font string, bundle *models.ArticleBundle, contentW float64) {
	pdf.SetFont(font, "", bodySize)
	third := contentW / 3
	pdf.CellFormat(third, 6, bundle.Date.Format("2006年1月2日"), "", 0, "L", false, 0, "")
	pdf.CellFormat(third, 6, bundle.Edition, "", 0, "C", false, 0, "")
	pdf.CellFormat(third, 6, "天気 "+bundle.Weather, "", 1, "R", false, 0, "")
	pdf.SetLineWidth(0.3)
	y := pdf.GetY() + 0.5
	pdf.Line(pageMargin, y, pageMargin+contentW, y)
	pdf.SetY(y + 3)
}

func (r *Renderer) drawMainArticle(pdf *fpdf.Fpdf, font string, bundle *models.ArticleBundle, images *models.ImageSet, contentW float64) {
	main := bundle.Main

	pdf.SetFont(font, "B", headlineSize)
	pdf.MultiCell(contentW, 9, main.Headline, "", "L", false)
	if main.Subheadline != "" {
		pdf.SetFont(font, "", subHeadSize)
		pdf.MultiCell(contentW, 6, main.Subheadline, "", "L", false)
	}
	pdf.Ln(2)

	imageW := contentW * 0.55
	r.drawSlotImage(pdf, font, images.Slot(0), "slot0", pageMargin, pdf.GetY(), imageW, mainImageH)

	textX := pageMargin + imageW + columnGap
	textW := contentW - imageW - columnGap
	pdf.SetXY(textX, pdf.GetY())
	pdf.SetFont(font, "", bodySize)
	top := pdf.GetY()
	pdf.SetLeftMargin(textX)
	pdf.MultiCell(textW, 4.6, main.Body, "", "L", false)
	pdf.SetLeftMargin(pageMargin)

	bottom := top + mainImageH
	if pdf.GetY() > bottom {
		bottom = pdf.GetY()
	}
	pdf.SetY(bottom + 4)
	pdf.SetLineWidth(0.3)
	pdf.Line(pageMargin, pdf.GetY(), pageMargin+contentW, pdf.GetY())
	pdf.SetY(pdf.GetY() + 3)
}

func (r *Renderer) drawSubArticles(pdf *fpdf.Fpdf, font string, bundle *models.ArticleBundle, images *models.ImageSet, contentW float64) {
	cols := len(bundle.SubArticles)
	if cols == 0 {
		return
	}
	colW := (contentW - columnGap*float64(cols-1)) / float64(cols)
	top := pdf.GetY()
	maxY := top

	for i, sub := range bundle.SubArticles {
		x := pageMargin + float64(i)*(colW+columnGap)
		pdf.SetXY(x, top)

		r.drawSlotImage(pdf, font, images.Slot(i+1), fmt.Sprintf("slot%d", i+1), x, top, colW, subImageH)

		pdf.SetXY(x, top+subImageH+2)
		pdf.SetFont(font, "B", subHeadSize)
		pdf.SetLeftMargin(x)
		pdf.MultiCell(colW, 5.5, sub.Headline, "", "L", false)
		pdf.SetFont(font, "", smallSize)
		pdf.MultiCell(colW, 4, sub.Body, "", "L", false)
		pdf.SetLeftMargin(pageMargin)

		if pdf.GetY() > maxY {
			maxY = pdf.GetY()
		}
	}

	pdf.SetY(maxY + 4)
	pdf.SetLineWidth(0.3)
	pdf.Line(pageMargin, pdf.GetY(), pageMargin+contentW, pdf.GetY())
	pdf.SetY(pdf.GetY() + 3)
}

func (r *Renderer) drawLowerStrip(pdf *fpdf.Fpdf, font string, bundle *models.ArticleBundle, contentW float64) {
	half := (contentW - columnGap) / 2
	top := pdf.GetY()

	pdf.SetXY(pageMargin, top)
	pdf.SetFont(font, "B", subHeadSize)
	pdf.SetLeftMargin(pageMargin)
	pdf.MultiCell(half, 5.5, "社説　"+bundle.Editorial.Headline, "", "L", false)
	pdf.SetFont(font, "", smallSize)
	pdf.MultiCell(half, 4, bundle.Editorial.Body, "", "L", false)
	editorialY := pdf.GetY()

	colX := pageMargin + half + columnGap
	pdf.SetXY(colX, top)
	pdf.SetLeftMargin(colX)
	pdf.SetFont(font, "B", subHeadSize)
	pdf.MultiCell(half, 5.5, bundle.ColumnTitle, "", "L", false)
	pdf.SetFont(font, "", smallSize)
	pdf.MultiCell(half, 4, bundle.ColumnBody, "", "L", false)
	columnY := pdf.GetY()
	pdf.SetLeftMargin(pageMargin)

	bottom := editorialY
	if columnY > bottom {
		bottom = columnY
	}
	pdf.SetY(bottom + 4)
}

func (r *Renderer) drawFooter(pdf *fpdf.Fpdf, font string, bundle *models.ArticleBundle, contentW float64) {
	if len(bundle.Advertisements) > 0 {
		cols := len(bundle.Advertisements)
		colW := (contentW - columnGap*float64(cols-1)) / float64(cols)
		top := pdf.GetY()
		for i, ad := range bundle.Advertisements {
			x := pageMargin + float64(i)*(colW+columnGap)
			pdf.Rect(x, top, colW, 18, "D")
			pdf.SetXY(x+1.5, top+2)
			pdf.SetFont(font, "B", smallSize)
			pdf.SetLeftMargin(x + 1.5)
			pdf.MultiCell(colW-3, 4, ad.Title, "", "C", false)
			pdf.SetFont(font, "", smallSize)
			pdf.MultiCell(colW-3, 3.5, ad.Body, "", "C", false)
			pdf.SetLeftMargin(pageMargin)
		}
		pdf.SetY(top + 20)
	}

	if p := bundle.Personalization; p != nil && p.RecipientName != "" {
		top := pdf.GetY()
		pdf.SetLineWidth(0.5)
		pdf.Rect(pageMargin, top, contentW, 14, "D")
		pdf.SetXY(pageMargin+2, top+2)
		pdf.SetFont(font, "B", subHeadSize)
		message := p.RecipientName + "様"
		if p.Occasion != "" {
			message += "　" + p.Occasion + "によせて"
		}
		pdf.CellFormat(contentW-4, 5.5, message, "", 1, "C", false, 0, "")
		if p.Message != "" {
			pdf.SetX(pageMargin + 2)
			pdf.SetFont(font, "", smallSize)
			pdf.CellFormat(contentW-4, 4.5, p.Message, "", 1, "C", false, 0, "")
		}
		pdf.SetY(top + 16)
	}
}

// drawSlotImage embeds a data-URI image at the given frame, or draws a
// captioned placeholder frame when the slot is absent or not embeddable.
func (r *Renderer) drawSlotImage(pdf *fpdf.Fpdf, font string, slot models.ImageSlot, name string, x, y, w, h float64) {
	if slot.Present {
		if imageType, data, err := decodeDataURI(slot.URI); err == nil {
			opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: false}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
			pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
			return
		}
	}

	pdf.SetLineWidth(0.3)
	pdf.Rect(x, y, w, h, "D")
	pdf.SetXY(x, y+h/2-2)
	pdf.SetFont(font, "", smallSize)
	pdf.CellFormat(w, 4, "（写真）", "", 0, "C", false, 0, "")
}

// decodeDataURI splits a data:<mime>;base64,<payload> string into the fpdf
// image type and the raw bytes.
func decodeDataURI(uri string) (string, []byte, error) {
	const prefix = "data:"
	if !strings.HasPrefix(uri, prefix) {
		return "", nil, fmt.Errorf("not a data uri")
	}
	meta, payload, ok := strings.Cut(uri[len(prefix):], ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data uri")
	}
	mime, _, _ := strings.Cut(meta, ";")
	if !strings.Contains(meta, "base64") {
		return "", nil, fmt.Errorf("data uri is not base64 encoded")
	}

	var imageType string
	switch mime {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg", "image/jpg":
		imageType = "JPG"
	case "image/gif":
		imageType = "GIF"
	default:
		return "", nil, fmt.Errorf("unsupported image mime type %q", mime)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return imageType, data, nil
}
