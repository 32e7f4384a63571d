// Package spreadsheet reads uploaded address lists and builds the import
// template. Decoding is delegated to excelize (.xlsx), extrame/xls (.xls)
// and encoding/csv; callers only ever see a grid of trimmed-or-not string
// cells.
package spreadsheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"github.com/ignite/invite-users/internal/invite"
)

// Format is an accepted upload format, named by file extension.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// DefaultMaxFileSize caps how much of an upload is read.
const DefaultMaxFileSize = 10 << 20

// AcceptAttribute lists the extensions for a file input's accept attribute.
const AcceptAttribute = ".csv,.xlsx,.xls"

// Parser decodes uploaded spreadsheets.
type Parser struct {
	maxSize int64
}

// NewParser returns a parser reading at most maxSize bytes per file. A
// non-positive maxSize selects DefaultMaxFileSize.
func NewParser(maxSize int64) *Parser {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Parser{maxSize: maxSize}
}

// CheckFileType returns the format selected by the extension of name.
// Anything other than .csv, .xlsx and .xls is rejected before reading.
func CheckFileType(name string) (Format, error) {
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return "", fmt.Errorf("%w: %q", invite.ErrUnsupportedFileType, name)
	}
	switch f := Format(strings.ToLower(name[dot+1:])); f {
	case FormatCSV, FormatXLSX, FormatXLS:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", invite.ErrUnsupportedFileType, name)
	}
}

// Parse decodes the first sheet of the file into rows of cells.
func (p *Parser) Parse(ctx context.Context, name string, r io.Reader) ([][]string, error) {
	format, err := CheckFileType(name)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, p.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading upload: %w", invite.ErrUnreadableFile, err)
	}
	if int64(len(data)) > p.maxSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", invite.ErrUnreadableFile, p.maxSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := sniff(format, data); err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = parseCSV(data)
	case FormatXLSX:
		rows, err = parseXLSX(data)
	case FormatXLS:
		rows, err = parseXLS(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", invite.ErrUnreadableFile, format, err)
	}
	return rows, nil
}

// sniff rejects content that does not match the extension, e.g. a PDF
// renamed to .csv.
func sniff(format Format, data []byte) error {
	if len(data) == 0 {
		if format == FormatCSV {
			return nil
		}
		return fmt.Errorf("%w: empty %s file", invite.ErrUnreadableFile, format)
	}

	var want []string
	switch format {
	case FormatCSV:
		want = []string{"text/plain"}
	case FormatXLSX:
		want = []string{"application/zip"}
	case FormatXLS:
		want = []string{"application/x-ole-storage", "application/vnd.ms-excel"}
	}

	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		for _, w := range want {
			if m.Is(w) {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s content detected as %s", invite.ErrUnreadableFile, format, detected.String())
}

func parseCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// parseXLS reads the first sheet of a BIFF workbook. The decoder panics
// on some malformed input and on rows that were never written, so both are
// turned into errors or empty rows here.
func parseXLS(data []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("corrupt workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("first sheet is unreadable")
	}

	rows = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// xlsRow returns row i, or nil when the sheet has no such row.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}
