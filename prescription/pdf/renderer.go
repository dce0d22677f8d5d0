// Package pdf renders a clinical visit as an A4 prescription document.
package pdf

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/prescription"
)

// Compile-time check to ensure Renderer implements PrescriptionRenderer interface
var _ interfaces.PrescriptionRenderer = (*Renderer)(nil)

const (
	pageMargin = 15.0
	lineHeight = 5.5
	fontFamily = "Helvetica"
)

// Medicine table layout, widths in mm summing to the printable A4 width
var (
	tableHeaders = []string{"#", "Medicine", "Dosage", "Frequency", "Duration", "Timing", "Remarks"}
	tableWidths  = []float64{8, 52, 22, 22, 22, 26, 28}
)

// Renderer draws prescriptions with fpdf core fonts
type Renderer struct {
	clinicName string
	compress   bool
}

// NewRenderer creates a renderer printing clinicName in the page header
func NewRenderer(clinicName string) *Renderer {
	if clinicName == "" {
		clinicName = "OneStopMed"
	}
	return &Renderer{clinicName: clinicName, compress: true}
}

// ContentType implements the PrescriptionRenderer interface
func (r *Renderer) ContentType() string {
	return "application/pdf"
}

// Render implements the PrescriptionRenderer interface
func (r *Renderer) Render(w io.Writer, visit prescription.Visit, meta prescription.RenderMeta) error {
	v := visit.WithDefaults()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle("Prescription "+meta.VisitID, true)
	pdf.SetCreator(r.clinicName, true)

	// Core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, fmt.Sprintf("Visit %s - page %d/{nb}", meta.VisitID, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	r.drawHeader(pdf, tr, meta)
	drawPatient(pdf, tr, v)
	drawDiagnosis(pdf, tr, v)
	drawMedicines(pdf, tr, v.Medicines)
	drawFollowUp(pdf, tr, v)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to lay out prescription: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write prescription: %w", err)
	}
	return nil
}

func (r *Renderer) drawHeader(pdf *fpdf.Fpdf, tr func(string) string, meta prescription.RenderMeta) {
	pdf.SetFont(fontFamily, "B", 18)
	pdf.SetTextColor(4, 120, 87)
	pdf.CellFormat(0, 10, tr(r.clinicName), "", 1, "L", false, 0, "")

	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(90, lineHeight, "Date: "+meta.FormattedDate(), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Visit ID: "+meta.VisitID, "", 1, "R", false, 0, "")

	pageWidth, _ := pdf.GetPageSize()
	y := pdf.GetY() + 2
	pdf.SetDrawColor(4, 120, 87)
	pdf.SetLineWidth(0.5)
	pdf.Line(pageMargin, y, pageWidth-pageMargin, y)
	pdf.Ln(6)
}

func labelValue(pdf *fpdf.Fpdf, tr func(string) string, width float64, label, value string, ln int) {
	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(22, lineHeight, label, "", 0, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(width-22, lineHeight, tr(value), "", ln, "L", false, 0, "")
}

func drawPatient(pdf *fpdf.Fpdf, tr func(string) string, v prescription.Visit) {
	pdf.SetTextColor(0, 0, 0)
	labelValue(pdf, tr, 90, "Patient:", v.PatientName, 0)
	labelValue(pdf, tr, 0, "Age/Sex:", v.Age+" / "+v.Gender, 1)
	labelValue(pdf, tr, 90, "Weight:", v.Weight, 0)
	labelValue(pdf, tr, 0, "BP:", v.BP, 1)
	labelValue(pdf, tr, 0, "Allergies:", v.Allergies, 1)
	pdf.Ln(3)
}

func drawDiagnosis(pdf *fpdf.Fpdf, tr func(string) string, v prescription.Visit) {
	if v.Diagnosis == "" {
		return
	}
	pdf.SetFont(fontFamily, "B", 11)
	pdf.CellFormat(0, 7, "Diagnosis", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.MultiCell(0, lineHeight, tr(v.Diagnosis), "", "L", false)
	pdf.Ln(3)
}

func drawTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont(fontFamily, "B", 9)
	pdf.SetFillColor(236, 253, 245)
	pdf.SetDrawColor(180, 180, 180)
	pdf.SetLineWidth(0.2)
	for i, h := range tableHeaders {
		pdf.CellFormat(tableWidths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(fontFamily, "", 9)
}

func medicineCells(tr func(string) string, idx int, m prescription.Medicine) []string {
	name := m.Name
	if m.Generic != "" {
		name += "\n(" + m.Generic + ")"
	}
	return []string{
		strconv.Itoa(idx),
		tr(name),
		tr(m.Dosage),
		tr(m.Frequency),
		tr(m.Duration),
		tr(m.Timing),
		tr(m.Remarks),
	}
}

func drawMedicines(pdf *fpdf.Fpdf, tr func(string) string, medicines []prescription.Medicine) {
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(0, 8, "Rx", "", 1, "L", false, 0, "")

	if len(medicines) == 0 {
		pdf.SetFont(fontFamily, "I", 10)
		pdf.CellFormat(0, lineHeight, "No medicines prescribed", "", 1, "L", false, 0, "")
		pdf.Ln(3)
		return
	}

	drawTableHeader(pdf)

	_, pageHeight := pdf.GetPageSize()
	for i, m := range medicines {
		cells := medicineCells(tr, i+1, m)

		lines := 1
		for c, text := range cells {
			if n := len(pdf.SplitLines([]byte(text), tableWidths[c]-2)); n > lines {
				lines = n
			}
		}
		rowHeight := float64(lines) * lineHeight

		if pdf.GetY()+rowHeight > pageHeight-pageMargin-10 {
			pdf.AddPage()
			drawTableHeader(pdf)
		}

		x, y := pdf.GetXY()
		for c, text := range cells {
			pdf.Rect(x, y, tableWidths[c], rowHeight, "D")
			pdf.SetXY(x, y)
			pdf.MultiCell(tableWidths[c], lineHeight, text, "", "L", false)
			x += tableWidths[c]
		}
		pdf.SetXY(pageMargin, y+rowHeight)
	}
	pdf.Ln(4)
}

func drawFollowUp(pdf *fpdf.Fpdf, tr func(string) string, v prescription.Visit) {
	if v.FollowUpDate == "" && v.FollowUpReason == "" {
		return
	}
	pdf.SetFont(fontFamily, "B", 11)
	pdf.CellFormat(0, 7, "Follow-up", "", 1, "L", false, 0, "")
	if v.FollowUpDate != "" {
		labelValue(pdf, tr, 0, "Date:", v.FollowUpDate, 1)
	}
	if v.FollowUpReason != "" {
		labelValue(pdf, tr, 0, "Reason:", v.FollowUpReason, 1)
	}
}
