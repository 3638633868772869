package portability

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/duaragha/cat-tracker-sub000/internal/casing"
	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

const cellTimeLayout = "2006-01-02 15:04"

type column struct {
	header string
	key    string // snake_case field name
	width  float64
	isTime bool
}

type sheet struct {
	kind    domain.Kind
	name    string
	columns []column
}

// Sheets in workbook order. The profile sheet comes first and is written separately.
var entrySheets = []sheet{
	{domain.KindWashroom, "Washroom", []column{
		{"Time", "timestamp", 18, true},
		{"Type", "type", 12, false},
		{"Consistency", "consistency", 12, false},
		{"Blood", "has_blood", 8, false},
		{"Color", "color", 10, false},
		{"Photos", "photos", 30, false},
		{"Notes", "notes", 40, false},
		{"ID", "id", 38, false},
	}},
	{domain.KindFood, "Food", []column{
		{"Time", "timestamp", 18, true},
		{"Category", "food_category", 10, false},
		{"Food", "food_type", 20, false},
		{"Brand", "brand", 16, false},
		{"Amount", "amount", 10, false},
		{"Unit", "unit", 10, false},
		{"Grams per portion", "portion_to_grams", 16, false},
		{"Notes", "notes", 40, false},
		{"ID", "id", 38, false},
	}},
	{domain.KindSleep, "Sleep", []column{
		{"Start", "start_time", 18, true},
		{"End", "end_time", 18, true},
		{"Minutes", "duration", 10, false},
		{"Quality", "quality", 10, false},
		{"Location", "location", 16, false},
		{"Photos", "photos", 30, false},
		{"Notes", "notes", 40, false},
		{"ID", "id", 38, false},
	}},
	{domain.KindWeight, "Weight", []column{
		{"Date", "measurement_date", 18, true},
		{"Weight (kg)", "weight", 12, false},
		{"Photos", "photos", 30, false},
		{"Notes", "notes", 40, false},
		{"ID", "id", 38, false},
	}},
	{domain.KindPhoto, "Photos", []column{
		{"Uploaded", "upload_date", 18, true},
		{"Image", "image_url", 40, false},
		{"Description", "description", 30, false},
		{"Tags", "tags", 20, false},
		{"Notes", "notes", 40, false},
		{"ID", "id", 38, false},
	}},
	{domain.KindTreat, "Treats", []column{
		{"Time", "timestamp", 18, true},
		{"Treat", "treat_type", 16, false},
		{"Brand", "brand", 16, false},
		{"Quantity", "quantity", 10, false},
		{"Calories", "calories", 10, false},
		{"Notes", "notes", 40, false},
		{"ID", "id", 38, false},
	}},
}

// WriteXLSX writes snap as a workbook with a profile sheet and one sheet per
// entry kind. Times are shown in loc.
func WriteXLSX(w io.Writer, snap *domain.Snapshot, loc *time.Location) error {
	if snap == nil {
		snap = domain.NewSnapshot()
	}
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeProfileSheet(f, snap.CatProfile, loc, headerStyle); err != nil {
		return err
	}
	f.DeleteSheet("Sheet1")

	for _, sh := range entrySheets {
		rows, err := entryRows(snap.Entries(sh.kind))
		if err != nil {
			return err
		}
		if err := writeEntrySheet(f, sh, rows, loc, headerStyle); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeProfileSheet(f *excelize.File, p *domain.CatProfile, loc *time.Location, headerStyle int) error {
	const name = "Profile"
	idx, err := f.NewSheet(name)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	if err := setRow(f, name, 1, []any{"Field", "Value"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(name, "A", "A", 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(name, "B", "B", 40); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if p == nil {
		return setRow(f, name, 2, []any{"Name", "(no profile)"})
	}

	rows := [][]any{
		{"Name", p.Name},
		{"Breed", p.Breed},
		{"Birth date", formatDate(p.BirthDate, loc)},
		{"Gotcha day", formatDate(p.AcquisitionDate, loc)},
		{"Weight", p.WeightDisplay()},
		{"Photo", p.PhotoURL},
		{"ID", p.ID},
	}
	for i, r := range rows {
		if err := setRow(f, name, i+2, r); err != nil {
			return err
		}
	}
	return nil
}

func writeEntrySheet(f *excelize.File, sh sheet, rows []map[string]any, loc *time.Location, headerStyle int) error {
	if _, err := f.NewSheet(sh.name); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := make([]any, len(sh.columns))
	for i, c := range sh.columns {
		header[i] = c.header
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sh.name, col, col, c.width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := setRow(f, sh.name, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(sh.columns), 1)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(sh.name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for r, item := range rows {
		values := make([]any, len(sh.columns))
		for i, c := range sh.columns {
			values[i] = cellValue(item[c.key], c.isTime, loc)
		}
		if err := setRow(f, sh.name, r+2, values); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sh.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

// entryRows flattens entries to snake_case maps, the same shape the API uses.
func entryRows(entries []domain.Entry) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		b, err := casing.MarshalSnake(e)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s entry: %w", e.EntryKind(), err)
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("failed to encode %s entry: %w", e.EntryKind(), err)
		}
		out = append(out, m)
	}
	return out, nil
}

func cellValue(v any, isTime bool, loc *time.Location) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if isTime {
			if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
				return t.In(loc).Format(cellTimeLayout)
			}
		}
		return x
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	}
	return v
}

func formatDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("2006-01-02")
}

func setRow(f *excelize.File, sheetName string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d on %s: %w", row, sheetName, err)
	}
	return nil
}
