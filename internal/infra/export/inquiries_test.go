package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xavierca1/ontriq-site/internal/entity"
)

func TestWriteInquiries(t *testing.T) {
	phone := "+1 555 0100"
	leadID := "lead-1"
	at := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	rows := []entity.Inquiry{
		{ID: "i1", CreatedAt: at, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			Phone: &phone, Message: "Need a site", ConvertedToLead: true, LeadID: &leadID},
		{ID: "i2", CreatedAt: at.Add(-time.Hour), FirstName: "Alan", LastName: "Turing", Email: "alan@example.com",
			Message: "Hello"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteInquiries(&buf, rows, time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{inquirySheet}, f.GetSheetList())

	got, err := f.GetRows(inquirySheet)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, InquiryHeader, got[0])
	assert.Equal(t, []string{"2026-03-04 09:30", "Ada", "Lovelace", "ada@example.com", phone,
		"Need a site", "", "yes", "lead-1"}, got[1])
	assert.Equal(t, "no", got[2][7])
}

func TestWriteInquiriesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInquiries(&buf, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(inquirySheet)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "ontriq-inquiries-2026-10-15.xlsx", FileName(time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)))
}
