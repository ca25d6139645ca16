// Package export renders admin data as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/xavierca1/ontriq-site/internal/entity"
)

const inquirySheet = "Inquiries"

var InquiryHeader = []string{
	"Received", "First name", "Last name", "Email", "Phone",
	"Message", "Source URL", "Converted", "Lead ID",
}

var inquiryColumnWidths = []float64{20, 16, 16, 30, 18, 60, 40, 11, 38}

// WriteInquiries writes one row per inquiry, in the order given, to w as an
// XLSX workbook. Times are rendered in loc.
func WriteInquiries(w io.Writer, inquiries []entity.Inquiry, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(inquirySheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F2937"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	header := make([]any, len(InquiryHeader))
	for i, h := range InquiryHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(inquirySheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(InquiryHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(inquirySheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, width := range inquiryColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(inquirySheet, col, col, width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	for i, inq := range inquiries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			inq.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			inq.FirstName,
			inq.LastName,
			inq.Email,
			str(inq.Phone),
			inq.Message,
			str(inq.SourceURL),
			yesNo(inq.ConvertedToLead),
			str(inq.LeadID),
		}
		if err := f.SetSheetRow(inquirySheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if len(inquiries) > 0 {
		if err := f.AutoFilter(inquirySheet, "A1:"+last, nil); err != nil {
			return fmt.Errorf("auto filter: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FileName is the download name for an export taken at t.
func FileName(t time.Time) string {
	return "ontriq-inquiries-" + t.Format("2006-01-02") + ".xlsx"
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
