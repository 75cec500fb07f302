package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/barthos4/ma-caisse/internal/core"
)

// Logo bounding box in millimeters. Images are aspect-fit, never stretched.
const (
	logoMaxWidth  = 40.0
	logoMaxHeight = 15.0
	logoMaxBytes  = 5 << 20
)

// PDFRenderer builds the PDF documents. The HTTP client is only used for
// the letterhead logo fetch.
type PDFRenderer struct {
	client *http.Client
}

func NewPDFRenderer(client *http.Client) *PDFRenderer {
	if client == nil {
		client = http.DefaultClient
	}
	return &PDFRenderer{client: client}
}

// WriteStatement renders the statement as a portrait A4 document: letterhead,
// centered title, one bordered table per kind with a bold totals row, a
// balance summary and a per-page footer with the fiscal identifiers.
func (r *PDFRenderer) WriteStatement(ctx context.Context, w io.Writer, st core.Statement, settings core.Settings) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(st.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	setFooter(pdf, tr, settings)
	pdf.AddPage()
	r.letterhead(ctx, pdf, tr, settings)
	centeredHeading(pdf, tr, statementTitle, periodLine(st.Period), generatedLine(st))

	widths := []float64{10, 76, 32, 32, 14, 26}
	statementTable(pdf, tr, widths, labelIncome, labelTotalIn, st.Income)
	pdf.Ln(6)
	statementTable(pdf, tr, widths, labelExpense, labelTotalOut, st.Expense)
	pdf.Ln(6)

	balanceRow(pdf, tr, "Total Recettes", st.Income.Totals.Realized, false)
	balanceRow(pdf, tr, "Total Dépenses", st.Expense.Totals.Realized, false)
	balanceRow(pdf, tr, labelNetBalance, st.NetBalance, true)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render statement pdf: %w", err)
	}
	return nil
}

// WriteTransactionLog renders the journal as a landscape A4 table.
func (r *PDFRenderer) WriteTransactionLog(ctx context.Context, w io.Writer, entries []core.LogEntry, period core.Period, settings core.Settings, generatedAt time.Time) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCreationDate(generatedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	setFooter(pdf, tr, settings)
	pdf.AddPage()
	r.letterhead(ctx, pdf, tr, settings)
	centeredHeading(pdf, tr, logTitle, periodLine(period),
		"Généré le "+generatedAt.Format("02/01/2006 à 15:04"))

	widths := []float64{24, 26, 92, 35, 40, 22, 38}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(221, 221, 221)
	for i, name := range logColumns {
		pdf.CellFormat(widths[i], 7, tr(name), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, e := range entries {
		tx := e.Transaction
		pdf.CellFormat(widths[0], 6, core.FormatDate(tx.Date), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(tx.OrderNumber), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, tr(tx.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, tr(tx.Reference), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 6, tr(e.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[5], 6, tr(kindLabel(tx.Kind)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[6], 6, tx.Amount.PDFSafe(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	if len(entries) == 0 {
		pdf.CellFormat(sum(widths), 6, tr("Aucune transaction sur la période"), "1", 1, "C", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render transaction log pdf: %w", err)
	}
	return nil
}

// letterhead draws the optional logo and the company block. A failed logo
// fetch or decode is logged and the document continues without it.
func (r *PDFRenderer) letterhead(ctx context.Context, pdf *gofpdf.Fpdf, tr func(string) string, settings core.Settings) {
	textX := 10.0
	if settings.LogoURL != "" {
		data, imageType, err := r.fetchImage(ctx, settings.LogoURL)
		if err != nil {
			slog.WarnContext(ctx, "Logo unavailable, continuing without it",
				"url", settings.LogoURL, "error", err)
		} else {
			placeLogo(pdf, data, imageType)
			textX = 10 + logoMaxWidth + 5
		}
	}

	pdf.SetXY(textX, 10)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, tr(settings.CompanyName), "", 2, "L", false, 0, "")
	if settings.Address != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, tr(settings.Address), "", 2, "L", false, 0, "")
	}
	pdf.SetY(28)
}

func setFooter(pdf *gofpdf.Fpdf, tr func(string) string, settings core.Settings) {
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetFont("Helvetica", "I", 8)
		if line := fiscalLine(settings); line != "" {
			pdf.CellFormat(0, 4, tr(line), "", 1, "C", false, 0, "")
		}
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d sur {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
}

func centeredHeading(pdf *gofpdf.Fpdf, tr func(string) string, title, period, generated string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr(period), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 5, tr(generated), "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func statementTable(pdf *gofpdf.Fpdf, tr func(string) string, widths []float64, section, totalLabel string, rep core.Report) {
	total := sum(widths)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(221, 221, 221)
	pdf.CellFormat(total, 7, tr(section), "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	for i, name := range reportColumns {
		pdf.CellFormat(widths[i], 7, tr(name), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	if len(rep.Rows) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(total, 6, tr("Aucune catégorie"), "1", 1, "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rep.Rows {
		pdf.CellFormat(widths[0], 6, fmt.Sprintf("%d", row.Seq), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(row.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, row.Planned.PDFSafe(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, row.Realized.PDFSafe(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, core.FormatPercent(row.Percent), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[5], 6, row.Variance.PDFSafe(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(widths[0]+widths[1], 7, tr(totalLabel), "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[2], 7, rep.Totals.Planned.PDFSafe(), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 7, rep.Totals.Realized.PDFSafe(), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4]+widths[5], 7, "", "1", 1, "C", false, 0, "")
}

func balanceRow(pdf *gofpdf.Fpdf, tr func(string) string, label string, amount core.Money, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 10)
	pdf.CellFormat(118, 7, tr(label), "", 0, "R", false, 0, "")
	pdf.CellFormat(72, 7, amount.PDFSafe(), "1", 1, "R", false, 0, "")
}

func sum(widths []float64) float64 {
	var t float64
	for _, w := range widths {
		t += w
	}
	return t
}

// fetchImage downloads and type-sniffs the logo.
func (r *PDFRenderer) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, logoMaxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	var imageType string
	switch http.DetectContentType(data) {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg":
		imageType = "JPG"
	case "image/gif":
		imageType = "GIF"
	default:
		return nil, "", fmt.Errorf("unsupported image type")
	}
	return data, imageType, nil
}

// placeLogo registers the image and draws it aspect-fit in the bounding box.
func placeLogo(pdf *gofpdf.Fpdf, data []byte, imageType string) {
	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	info := pdf.RegisterImageOptionsReader("letterhead-logo", opts, bytes.NewReader(data))
	if info == nil {
		return
	}
	w, h := info.Extent()
	if w <= 0 || h <= 0 {
		return
	}
	scale := math.Min(logoMaxWidth/w, logoMaxHeight/h)
	pdf.ImageOptions("letterhead-logo", 10, 10, w*scale, h*scale, false, opts, 0, "")
}
