package sheets

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// SpreadsheetResponse mirrors the subset of GET /v4/spreadsheets/{id} that
// shelf reads.
type SpreadsheetResponse struct {
	SpreadsheetID string                `json:"spreadsheetId"`
	Properties    SpreadsheetProperties `json:"properties"`
	Sheets        []Sheet               `json:"sheets"`
}

// SpreadsheetProperties holds document level metadata.
type SpreadsheetProperties struct {
	Title  string `json:"title"`
	Locale string `json:"locale"`
}

// Sheet is one tab of the spreadsheet.
type Sheet struct {
	Properties SheetProperties `json:"properties"`
}

// SheetProperties identifies a sheet.
type SheetProperties struct {
	SheetID int64  `json:"sheetId"`
	Title   string `json:"title"`
	Index   int    `json:"index"`
}

// ValueRange mirrors GET /v4/spreadsheets/{id}/values/{range}.
type ValueRange struct {
	Range          string   `json:"range"`
	MajorDimension string   `json:"majorDimension"`
	Values         [][]Cell `json:"values"`
}

// Cell is a single value rendered as text. The API returns strings for
// formatted values, but numbers and booleans appear when a caller asks for
// unformatted output, so both are accepted.
type Cell string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Cell(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Cell(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*c = Cell(strconv.FormatBool(b))
		return nil
	}
	return fmt.Errorf("unsupported cell value %s", data)
}

// Strings converts the value grid to plain strings.
func (v ValueRange) Strings() [][]string {
	if len(v.Values) == 0 {
		return nil
	}
	rows := make([][]string, len(v.Values))
	for i, row := range v.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = string(cell)
		}
		rows[i] = cells
	}
	return rows
}
