package transfer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ghxstship/marketplace/model"
)

// Format identifies an exchange format.
type Format string

// Supported formats. ExcelData and PDFData carry structured sheet data in
// the result; ExcelData additionally renders a real workbook.
const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "excel-data"
	FormatPDF   Format = "pdf-data"
)

// Valid reports whether f is a known export format.
func (f Format) Valid() bool {
	switch f {
	case FormatCSV, FormatJSON, FormatExcel, FormatPDF:
		return true
	}
	return false
}

// TableData is the structured header/rows payload consumed by sheet and PDF
// renderers downstream.
type TableData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ExportResult is one rendered export. Data holds the serialized payload for
// csv, json, and excel; Table holds the structured form for excel-data and
// pdf-data.
type ExportResult struct {
	Format      Format     `json:"format"`
	ContentType string     `json:"content_type"`
	Filename    string     `json:"filename"`
	Data        []byte     `json:"-"`
	Table       *TableData `json:"table,omitempty"`
}

// Exporter renders record collections. Callers list records first, with
// whatever visibility filtering applies, and hand the result here.
type Exporter struct{}

// NewExporter creates an Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export renders the records in the given format over the given field paths.
// Empty fields defaults to the union of top-level keys across the records,
// sorted, so ad hoc exports stay deterministic.
func (e *Exporter) Export(entity model.EntityType, records []model.DataRecord, format Format, fields []string) (*ExportResult, error) {
	if !format.Valid() {
		return nil, model.NewBadRequestError(fmt.Sprintf("unsupported export format %q", format))
	}
	if len(fields) == 0 {
		fields = defaultFields(records)
	}

	out := &ExportResult{
		Format:   format,
		Filename: exportFilename(entity, format),
	}

	switch format {
	case FormatCSV:
		data, err := renderCSV(records, fields)
		if err != nil {
			return nil, err
		}
		out.Data = data
		out.ContentType = "text/csv"
	case FormatJSON:
		data, err := renderJSON(records, fields)
		if err != nil {
			return nil, err
		}
		out.Data = data
		out.ContentType = "application/json"
	case FormatExcel:
		table := buildTable(records, fields)
		data, err := renderWorkbook(entity, table)
		if err != nil {
			return nil, err
		}
		out.Data = data
		out.Table = table
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		out.Table = buildTable(records, fields)
		out.ContentType = "application/json"
	}
	return out, nil
}

func exportFilename(entity model.EntityType, format Format) string {
	ext := map[Format]string{
		FormatCSV:   "csv",
		FormatJSON:  "json",
		FormatExcel: "xlsx",
		FormatPDF:   "json",
	}[format]
	return fmt.Sprintf("%s-export-%s.%s", entity, time.Now().UTC().Format("2006-01-02"), ext)
}

func defaultFields(records []model.DataRecord) []string {
	seen := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	fields := make([]string, 0, len(seen))
	for k := range seen {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

func buildTable(records []model.DataRecord, fields []string) *TableData {
	table := &TableData{Headers: fields, Rows: make([][]string, 0, len(records))}
	for _, rec := range records {
		row := make([]string, len(fields))
		for i, field := range fields {
			row[i] = FormatValue(field, model.ResolvePath(rec, field))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// renderCSV writes header plus one row per record. encoding/csv quotes
// fields containing commas, quotes, or newlines and doubles internal quotes.
func renderCSV(records []model.DataRecord, fields []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	table := buildTable(records, fields)
	if err := w.Write(table.Headers); err != nil {
		return nil, err
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderJSON emits an array of flat objects keyed by field path, values
// formatted with the same display rules as the tabular formats.
func renderJSON(records []model.DataRecord, fields []string) ([]byte, error) {
	out := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		row := make(map[string]string, len(fields))
		for _, field := range fields {
			row[field] = FormatValue(field, model.ResolvePath(rec, field))
		}
		out = append(out, row)
	}
	return json.MarshalIndent(out, "", "  ")
}

func renderWorkbook(entity model.EntityType, table *TableData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]any, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatValue renders one field value for export. Dates render as
// YYYY-MM-DD, booleans as Yes/No, currency amounts with two decimals. The
// currency rule keys off the field path since raw records carry plain
// numbers.
func FormatValue(field string, value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case time.Time:
		return v.UTC().Format("2006-01-02")
	case float64:
		if currencyField(field) {
			return strconv.FormatFloat(v, 'f', 2, 64)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return FormatValue(field, float64(v))
	case int:
		if currencyField(field) {
			return strconv.FormatFloat(float64(v), 'f', 2, 64)
		}
		return strconv.Itoa(v)
	case int64:
		return FormatValue(field, int(v))
	case string:
		if t, ok := parseDate(v); ok && dateField(field) {
			return t.UTC().Format("2006-01-02")
		}
		if currencyField(field) {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				return strconv.FormatFloat(n, 'f', 2, 64)
			}
		}
		return v
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = FormatValue(field, item)
		}
		return strings.Join(parts, "; ")
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

func currencyField(field string) bool {
	last := field
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		last = field[i+1:]
	}
	switch last {
	case "amount", "price", "budget", "rate":
		return true
	}
	return false
}

func dateField(field string) bool {
	last := field
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		last = field[i+1:]
	}
	return last == "deadline" || strings.HasSuffix(last, "_at") || strings.HasSuffix(last, "_date") || last == "date"
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
