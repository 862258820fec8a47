// Package importer reads item lists from CSV and Excel files. It detects the
// delimiter, maps columns by case-insensitive header aliases and expands
// quantities into individual items.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/eugenenazirov/binpacker/internal/geometry"
)

// MaxQuantity caps the quantity of a single row or item entry.
const MaxQuantity = 10000

// Result holds the items read from a file and the problems found on the way.
type Result struct {
	Items    []geometry.Item
	Errors   []string
	Warnings []string
}

// ColumnMapping maps column roles to their indices; -1 means absent.
type ColumnMapping struct {
	Label    int
	Width    int
	Height   int
	Quantity int
}

var headerAliases = map[string][]string{
	"label":    {"label", "name", "id", "item", "description", "piece", "part"},
	"width":    {"width", "w", "x"},
	"height":   {"height", "h", "y"},
	"quantity": {"quantity", "qty", "count", "pcs", "amount"},
}

// DetectCSVDelimiter picks the delimiter among comma, semicolon, tab and pipe
// that yields the most consistent multi-column rows.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	best := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) == 0 {
			continue
		}
		cols := len(records[0])
		if cols < 2 {
			continue
		}

		consistent := 0
		for _, row := range records {
			if len(row) == cols {
				consistent++
			}
		}
		if score := consistent*10 + cols; score > bestScore {
			bestScore = score
			best = delim
		}
	}
	return best
}

// DetectColumns maps a header row. When no known header is found it returns
// the positional mapping label, width, height, quantity and false.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Label: -1, Width: -1, Height: -1, Quantity: -1}
	targets := map[string]*int{
		"label":    &mapping.Label,
		"width":    &mapping.Width,
		"height":   &mapping.Height,
		"quantity": &mapping.Quantity,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if *targets[role] == -1 {
					*targets[role] = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Label: 0, Width: 1, Height: 2, Quantity: 3}, false
	}
	return mapping, true
}

func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow returns the items described by one row, or an error message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, lineNum int) ([]geometry.Item, string) {
	widthStr := getCell(row, mapping.Width)
	width, err := strconv.ParseFloat(widthStr, 64)
	if err != nil {
		return nil, fmt.Sprintf("%s: invalid width %q", rowLabel, widthStr)
	}
	heightStr := getCell(row, mapping.Height)
	height, err := strconv.ParseFloat(heightStr, 64)
	if err != nil {
		return nil, fmt.Sprintf("%s: invalid height %q", rowLabel, heightStr)
	}

	qty := 1
	if qtyStr := getCell(row, mapping.Quantity); qtyStr != "" {
		qty, err = strconv.Atoi(qtyStr)
		if err != nil {
			return nil, fmt.Sprintf("%s: invalid quantity %q", rowLabel, qtyStr)
		}
	}
	if qty <= 0 || qty > MaxQuantity {
		return nil, fmt.Sprintf("%s: quantity must be between 1 and %d", rowLabel, MaxQuantity)
	}

	base := geometry.Item{Label: getCell(row, mapping.Label), Width: width, Height: height}
	if err := base.Validate(); err != nil {
		return nil, fmt.Sprintf("%s: %v", rowLabel, err)
	}

	items := make([]geometry.Item, qty)
	for i := range items {
		items[i] = base
		items[i].ID = "r" + strconv.Itoa(lineNum)
		if qty > 1 {
			items[i].ID += "-" + strconv.Itoa(i+1)
		}
	}
	return items, ""
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV reads items from a CSV file with automatic delimiter detection.
func ImportCSV(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("cannot open file: %v", err)}}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Result{Errors: []string{"file is empty"}}
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		name := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("detected %s delimiter", name))
	}

	res := ImportCSVFromReader(bytes.NewReader(data), delimiter)
	res.Warnings = append(warnings, res.Warnings...)
	return res
}

// ImportCSVFromReader reads items from r using a known delimiter.
func ImportCSVFromReader(r io.Reader, delimiter rune) Result {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("cannot read CSV: %v", err)}}
	}
	return importFromRows(records, "line")
}

// ImportExcel reads items from the first sheet of an Excel workbook.
func ImportExcel(path string) Result {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("cannot open Excel file: %v", err)}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{Errors: []string{"workbook has no sheets"}}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("cannot read sheet %q: %v", sheets[0], err)}}
	}
	return importFromRows(rows, "row")
}

// Import dispatches on the file extension: .xlsx/.xlsm read as Excel,
// anything else as CSV.
func Import(path string) Result {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path)
	}
	return ImportCSV(path)
}

func importFromRows(rows [][]string, rowPrefix string) Result {
	var res Result
	if len(rows) == 0 {
		res.Errors = append(res.Errors, "no data rows found")
		return res
	}

	mapping, hasHeader := DetectColumns(rows[0])
	start := 0
	if hasHeader {
		start = 1
		var missing []string
		if mapping.Width == -1 {
			missing = append(missing, "width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "height")
		}
		if len(missing) > 0 {
			res.Errors = append(res.Errors, "required columns not found in header: "+strings.Join(missing, ", "))
			return res
		}
	} else if len(rows[0]) >= 3 {
		if _, err := strconv.ParseFloat(getCell(rows[0], 1), 64); err != nil {
			start = 1
			res.Warnings = append(res.Warnings, "unrecognised header row skipped")
		}
	}

	for i := start; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		lineNum := i + 1
		items, errMsg := parseRow(row, mapping, fmt.Sprintf("%s %d", rowPrefix, lineNum), lineNum)
		if errMsg != "" {
			res.Errors = append(res.Errors, errMsg)
			continue
		}
		res.Items = append(res.Items, items...)
	}
	return res
}
