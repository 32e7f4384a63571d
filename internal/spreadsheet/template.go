package spreadsheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ignite/invite-users/internal/invite"
)

const (
	// TemplateFileName is the download name of the import template.
	TemplateFileName = "invite-users-template.xlsx"
	// TemplateContentType is the media type of the template workbook.
	TemplateContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	templateSheet = "Invite Template"
)

// TemplateHeader is the fixed header row. Only Email is read back on import.
var TemplateHeader = []string{"Email", "First Name", "Last Name", "Department", "Notes"}

var templateRows = [][]string{
	{"john.doe@example.com", "John", "Doe", "Engineering", "Team Lead"},
	{"jane.smith@example.com", "Jane", "Smith", "Marketing", ""},
	{"alex.wilson@example.com", "Alex", "Wilson", "Sales", "New hire"},
	{"", "", "", "", ""},
	{"You can add more rows here...", "", "", "", ""},
	{"", "", "", "", ""},
	{"Tips:", "", "", "", ""},
	{"- Only the Email column is required", "", "", "", ""},
	{"- You can include multiple emails in a single spreadsheet", "", "", "", ""},
	{"- The system will extract all valid email addresses", "", "", "", ""},
}

var templateColumnWidths = []float64{25, 15, 15, 15, 20}

// BuildTemplate renders the import template workbook.
func BuildTemplate() ([]byte, error) {
	b, err := buildTemplate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", invite.ErrTemplateBuild, err)
	}
	return b, nil
}

func buildTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), templateSheet); err != nil {
		return nil, err
	}

	rows := append([][]string{TemplateHeader}, templateRows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(templateSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"EEEEEE"}},
	})
	if err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(TemplateHeader), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(templateSheet, "A1", last, header); err != nil {
		return nil, err
	}

	for i, w := range templateColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(templateSheet, col, col, w); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
