package transfer

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ghxstship/marketplace/internal/crud"
	"github.com/ghxstship/marketplace/internal/store"
	"github.com/ghxstship/marketplace/model"
)

// ImportOptions controls duplicate handling. Rows matching an existing
// record by natural key count as duplicates: SkipDuplicates skips them,
// UpdateExisting patches them, neither means they import as new records.
// ValidateOnly runs the full pipeline without persisting anything.
type ImportOptions struct {
	SkipDuplicates bool `json:"skip_duplicates"`
	UpdateExisting bool `json:"update_existing"`
	ValidateOnly   bool `json:"validate_only"`
}

// ImportResult reports what an import run did.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportPreview is the parsed head of an import payload.
type ImportPreview struct {
	Headers []string           `json:"headers"`
	Preview []model.DataRecord `json:"preview"`
}

// Importer parses exchange payloads and runs each row through the full
// create/update pipeline, so imported rows get the same validation and
// authorization as interactive edits.
type Importer struct {
	engine *crud.Engine
}

// NewImporter creates an Importer over the given engine.
func NewImporter(engine *crud.Engine) *Importer {
	return &Importer{engine: engine}
}

// PreviewImport parses the payload and returns its headers plus at most
// maxRows records, without touching the store.
func (im *Importer) PreviewImport(format Format, raw []byte, maxRows int) (*ImportPreview, error) {
	headers, rows, err := parseRows(format, raw)
	if err != nil {
		return nil, err
	}
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	return &ImportPreview{Headers: headers, Preview: rows}, nil
}

// Import parses the payload and applies each row. Row failures are collected
// per row and never abort the remaining rows.
func (im *Importer) Import(ctx context.Context, rctx *model.RequestContext, entity model.EntityType, format Format, raw []byte, opts ImportOptions) (*ImportResult, error) {
	_, rows, err := parseRows(format, raw)
	if err != nil {
		return nil, err
	}

	existing, err := im.engine.List(ctx, rctx, entity, store.Filters{})
	if err != nil {
		return nil, err
	}
	key := naturalKey(entity)
	byKey := make(map[string]model.DataRecord, len(existing))
	for _, rec := range existing {
		if v := rec.StringField(key); v != "" {
			byKey[v] = rec
		}
	}

	result := &ImportResult{}
	for i, row := range rows {
		rowNum := i + 2 // 1-based, after the header row
		match, isDup := byKey[row.StringField(key)]

		switch {
		case isDup && opts.SkipDuplicates:
			result.Skipped++
		case isDup && opts.UpdateExisting:
			if opts.ValidateOnly {
				if verrs := im.engine.ValidatePatch(entity, row); len(verrs) > 0 {
					result.Errors = append(result.Errors, rowErrors(rowNum, verrs)...)
				} else {
					result.Imported++
				}
				continue
			}
			res := im.engine.Update(ctx, rctx, entity, match.ID(), row)
			if res.OK() {
				result.Imported++
			} else {
				result.Errors = append(result.Errors, rowErrors(rowNum, res.Errors)...)
			}
		default:
			if opts.ValidateOnly {
				if verrs := im.engine.ValidateRecord(entity, row); len(verrs) > 0 {
					result.Errors = append(result.Errors, rowErrors(rowNum, verrs)...)
				} else {
					result.Imported++
				}
				continue
			}
			res := im.engine.Create(ctx, rctx, entity, row)
			if res.OK() {
				result.Imported++
				if v := res.Record.StringField(key); v != "" {
					byKey[v] = res.Record
				}
			} else {
				result.Errors = append(result.Errors, rowErrors(rowNum, res.Errors)...)
			}
		}
	}
	return result, nil
}

func rowErrors(rowNum int, verrs []model.ValidationError) []string {
	out := make([]string, 0, len(verrs))
	for _, ve := range verrs {
		if ve.Field == model.GeneralField {
			out = append(out, fmt.Sprintf("row %d: %s", rowNum, ve.Message))
		} else {
			out = append(out, fmt.Sprintf("row %d: %s: %s", rowNum, ve.Field, ve.Message))
		}
	}
	return out
}

func naturalKey(entity model.EntityType) string {
	if entity == model.EntityVendors {
		return "name"
	}
	return "title"
}

// parseRows dispatches on format. Excel payloads read the first sheet only.
func parseRows(format Format, raw []byte) ([]string, []model.DataRecord, error) {
	switch format {
	case FormatCSV:
		return parseCSV(raw)
	case FormatJSON:
		return parseJSONRows(raw)
	case FormatExcel:
		return parseXLSX(raw)
	default:
		return nil, nil, model.NewBadRequestError(fmt.Sprintf("unsupported import format %q", format))
	}
}

func parseCSV(raw []byte) ([]string, []model.DataRecord, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1

	headers, err := r.Read()
	if err == io.EOF {
		return nil, nil, model.NewBadRequestError("empty import payload")
	}
	if err != nil {
		return nil, nil, model.NewBadRequestError("malformed CSV: " + err.Error())
	}

	var rows []model.DataRecord
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, model.NewBadRequestError("malformed CSV: " + err.Error())
		}
		rows = append(rows, rowToRecord(headers, record))
	}
	return headers, rows, nil
}

func parseJSONRows(raw []byte) ([]string, []model.DataRecord, error) {
	var rows []model.DataRecord
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, nil, model.NewBadRequestError("malformed JSON: expected an array of objects")
	}
	seen := map[string]struct{}{}
	var headers []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				headers = append(headers, k)
			}
		}
	}
	return headers, rows, nil
}

func parseXLSX(raw []byte) ([]string, []model.DataRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, model.NewBadRequestError("malformed workbook: " + err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, model.NewBadRequestError("workbook has no sheets")
	}
	iter, err := f.Rows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	defer iter.Close()

	var headers []string
	var rows []model.DataRecord
	for iter.Next() {
		cols, err := iter.Columns()
		if err != nil {
			return nil, nil, err
		}
		if headers == nil {
			headers = cols
			continue
		}
		rows = append(rows, rowToRecord(headers, cols))
	}
	if headers == nil {
		return nil, nil, model.NewBadRequestError("empty import payload")
	}
	return headers, rows, nil
}

// rowToRecord builds a record from one tabular row, expanding dotted headers
// ("pricing.amount") into nested maps and coercing obvious scalars. Cells
// beyond the header count are dropped; missing cells stay absent rather than
// becoming empty strings.
func rowToRecord(headers []string, cells []string) model.DataRecord {
	rec := model.DataRecord{}
	for i, h := range headers {
		if i >= len(cells) || cells[i] == "" {
			continue
		}
		assignPath(rec, h, coerceCell(cells[i]))
	}
	return rec
}

// assignPath is the write-side counterpart of model.ResolvePath.
func assignPath(rec model.DataRecord, path string, value any) {
	parts := strings.Split(path, ".")
	target := map[string]any(rec)
	for _, part := range parts[:len(parts)-1] {
		next, ok := target[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			target[part] = next
		}
		target = next
	}
	target[parts[len(parts)-1]] = value
}

func coerceCell(s string) any {
	switch s {
	case "Yes", "true":
		return true
	case "No", "false":
		return false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && strings.IndexByte(s, '.') >= 0 {
		return n
	}
	return s
}
