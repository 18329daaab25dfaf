package serviceImp

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

type column struct {
	Title string
	Width float64
	Align string
}

// doc is an A4 portrait report with a title block and a page footer.
// Text goes through tr so names with accents survive the core fonts.
type doc struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newDoc(title, subtitle string, generated time.Time) *doc {
	pdf := fpdf.New("P", "mm", "A4", "")
	d := &doc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetTitle(title, true)
	pdf.SetCreator("Farm Portal", true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-13)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, d.tr(fmt.Sprintf("Generated %s", generated.Format("January 2, 2006 15:04"))), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, d.tr(title), "", 1, "L", false, 0, "")
	if subtitle != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(90, 100, 90)
		pdf.MultiCell(0, 5, d.tr(subtitle), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(3)
	return d
}

func (d *doc) heading(s string) {
	d.pdf.Ln(2)
	d.pdf.SetFont("Helvetica", "B", 12)
	d.pdf.CellFormat(0, 7, d.tr(s), "B", 1, "L", false, 0, "")
	d.pdf.Ln(1)
}

func (d *doc) kv(label, value string) {
	d.pdf.SetFont("Helvetica", "B", 10)
	d.pdf.CellFormat(45, 6, d.tr(label), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.CellFormat(0, 6, d.tr(value), "", 1, "L", false, 0, "")
}

func (d *doc) note(s string) {
	d.pdf.SetFont("Helvetica", "I", 9)
	d.pdf.CellFormat(0, 6, d.tr(s), "", 1, "L", false, 0, "")
}

// table prints a header row then the rows, repeating the header after a
// page break.
func (d *doc) table(cols []column, rows [][]string) {
	header := func() {
		d.pdf.SetFont("Helvetica", "B", 9)
		d.pdf.SetFillColor(220, 232, 210)
		for _, c := range cols {
			d.pdf.CellFormat(c.Width, 7, d.tr(c.Title), "1", 0, "C", true, 0, "")
		}
		d.pdf.Ln(-1)
	}
	header()
	d.pdf.SetFont("Helvetica", "", 9)
	_, pageH := d.pdf.GetPageSize()
	_, _, _, bottom := d.pdf.GetMargins()
	for _, row := range rows {
		if d.pdf.GetY()+6 > pageH-bottom-6 {
			d.pdf.AddPage()
			header()
			d.pdf.SetFont("Helvetica", "", 9)
		}
		for i, c := range cols {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			align := c.Align
			if align == "" {
				align = "L"
			}
			d.pdf.CellFormat(c.Width, 6, d.tr(v), "1", 0, align, false, 0, "")
		}
		d.pdf.Ln(-1)
	}
	if len(rows) == 0 {
		var w float64
		for _, c := range cols {
			w += c.Width
		}
		d.pdf.SetFont("Helvetica", "I", 9)
		d.pdf.CellFormat(w, 6, "No records.", "1", 1, "C", false, 0, "")
	}
}

func (d *doc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// title turns "farm_president" into "Farm president".
func title(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
