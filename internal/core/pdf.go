package core

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// ExportRequisitionPDF renders a requisition with its items to w.
func (s *Service) ExportRequisitionPDF(ctx context.Context, id uuid.UUID, w io.Writer) error {
	d, err := s.GetRequisition(ctx, id)
	if err != nil {
		return err
	}
	return WriteRequisitionPDF(w, d)
}

// pdfColumns are the item table columns with widths in mm (A4 portrait has
// 190mm between the default margins).
var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"#", 8, "R"},
	{"Item", 46, "L"},
	{"Code", 36, "L"},
	{"Vendor", 28, "L"},
	{"Qty", 18, "R"},
	{"Unit cost", 26, "R"},
	{"Line total", 28, "R"},
}

// WriteRequisitionPDF renders d as a one-table A4 document.
func WriteRequisitionPDF(w io.Writer, d RequisitionDetail) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Purchase Requisition")
	pdf.Ln(12)

	requester := d.RequestedBy
	if d.Requester != nil && d.Requester.FullName != "" {
		requester = d.Requester.FullName
	}

	pdf.SetFont("Arial", "", 10)
	for _, kv := range [][2]string{
		{"Requisition", d.ID.String()},
		{"Project", d.ProjectCode},
		{"Purchase type", string(d.PurchaseType)},
		{"Status", string(d.Status)},
		{"Requested by", requester},
		{"Date", d.DateCreated.Format("2006-01-02")},
	} {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(35, 6, kv[0]+":")
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, tr(kv[1]))
		pdf.Ln(6)
	}
	if d.Notes != "" {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(35, 6, "Notes:")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 6, tr(d.Notes), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(217, 225, 242)
	for _, c := range pdfColumns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, it := range d.Items {
		cells := []string{
			fmt.Sprint(it.Line),
			tr(truncate(it.ItemName, 28)),
			tr(truncate(it.ItemCode, 22)),
			tr(truncate(it.Vendor, 16)),
			formatNumber(it.Quantity) + " " + tr(it.Units),
			fmt.Sprintf("%.2f %s", it.Cost, it.Currency),
			fmt.Sprintf("%.2f", it.Cost*it.Quantity),
		}
		for i, c := range pdfColumns {
			pdf.CellFormat(c.width, 6, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	var labelWidth float64
	for _, c := range pdfColumns[:len(pdfColumns)-1] {
		labelWidth += c.width
	}
	pdf.CellFormat(labelWidth, 7, "Total value", "1", 0, "R", false, 0, "")
	pdf.CellFormat(pdfColumns[len(pdfColumns)-1].width, 7, fmt.Sprintf("%.2f", d.TotalValue), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render requisition pdf: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
