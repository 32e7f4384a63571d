package spreadsheet

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ignite/invite-users/internal/invite"
)

func TestCheckFileType(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"people.csv", FormatCSV, false},
		{"People.XLSX", FormatXLSX, false},
		{"legacy.v2.xls", FormatXLS, false},
		{"notes.txt", "", true},
		{"archive.xlsx.zip", "", true},
		{"csv", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckFileType(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, invite.ErrUnsupportedFileType)
				assert.Equal(t, invite.KindFileType, invite.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_CSV(t *testing.T) {
	p := NewParser(0)
	body := "\xef\xbb\xbfEmail,Name,Count\r\nx@y.com,\"Doe, John\",2\r\nnot-an-email,z@w.org\r\n"

	rows, err := p.Parse(context.Background(), "list.csv", strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Email", "Name", "Count"}, rows[0])
	assert.Equal(t, []string{"x@y.com", "Doe, John", "2"}, rows[1])
	assert.Equal(t, []string{"not-an-email", "z@w.org"}, rows[2])
}

func TestParse_EmptyCSV(t *testing.T) {
	rows, err := NewParser(0).Parse(context.Background(), "empty.csv", strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParse_RejectsUnsupportedExtension(t *testing.T) {
	_, err := NewParser(0).Parse(context.Background(), "list.pdf", strings.NewReader("%PDF-1.4"))
	assert.ErrorIs(t, err, invite.ErrUnsupportedFileType)
}

func TestParse_RejectsMismatchedContent(t *testing.T) {
	template, err := BuildTemplate()
	require.NoError(t, err)

	// A zip container renamed to .csv is not text.
	_, err = NewParser(0).Parse(context.Background(), "list.csv", bytes.NewReader(template))
	assert.ErrorIs(t, err, invite.ErrUnreadableFile)
	assert.Equal(t, invite.KindParse, invite.KindOf(err))

	_, err = NewParser(0).Parse(context.Background(), "list.xlsx", strings.NewReader("email\na@b.com\n"))
	assert.ErrorIs(t, err, invite.ErrUnreadableFile)

	_, err = NewParser(0).Parse(context.Background(), "list.xls", strings.NewReader("email\na@b.com\n"))
	assert.ErrorIs(t, err, invite.ErrUnreadableFile)
}

func TestParse_SizeLimit(t *testing.T) {
	p := NewParser(16)
	_, err := p.Parse(context.Background(), "list.csv", strings.NewReader(strings.Repeat("a@b.com,", 10)))
	assert.ErrorIs(t, err, invite.ErrUnreadableFile)
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"x@y.com", 2}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"not-an-email", "z@w.org"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rows, err := NewParser(0).Parse(context.Background(), "book.xlsx", buf)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"x@y.com", "2"}, {"not-an-email", "z@w.org"}}, rows)

	c := invite.NewCollector()
	_, err = c.Import(rows)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestParse_XLS(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "invitees.xls"))
	require.NoError(t, err)

	rows, err := NewParser(0).Parse(context.Background(), "invitees.xls", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Email", "Name"},
		{"x@y.com", "Jane"},
		{"not-an-email", "z@w.org; q@r.io"},
	}, rows)

	c := invite.NewCollector()
	report, err := c.Import(rows)
	require.NoError(t, err)
	assert.Equal(t, invite.ImportReport{Valid: 3, Invalid: 0, Added: 3}, report)
}

func TestParse_XLSRejectsBrokenContainers(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "invitees.xls"))
	require.NoError(t, err)

	// An xlsx workbook renamed to .xls.
	template, err := BuildTemplate()
	require.NoError(t, err)
	_, err = NewParser(0).Parse(context.Background(), "book.xls", bytes.NewReader(template))
	assert.ErrorIs(t, err, invite.ErrUnreadableFile)

	// The container header alone, with no sectors behind it.
	_, err = NewParser(0).Parse(context.Background(), "book.xls", bytes.NewReader(data[:512]))
	assert.ErrorIs(t, err, invite.ErrUnreadableFile)
	assert.Equal(t, invite.KindParse, invite.KindOf(err))
}

func TestBuildTemplate_RoundTrip(t *testing.T) {
	data, err := BuildTemplate()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{templateSheet}, f.GetSheetList())

	width, err := f.GetColWidth(templateSheet, "A")
	require.NoError(t, err)
	assert.Equal(t, 25.0, width)

	rows, err := NewParser(0).Parse(context.Background(), TemplateFileName, bytes.NewReader(data))
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, TemplateHeader, rows[0])

	c := invite.NewCollector()
	report, err := c.Import(rows)
	require.NoError(t, err)
	assert.Equal(t, invite.ImportReport{Valid: 3, Invalid: 0, Added: 3}, report)
}
