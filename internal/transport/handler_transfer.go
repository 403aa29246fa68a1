package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ghxstship/marketplace/internal/crud"
	"github.com/ghxstship/marketplace/internal/observability"
	"github.com/ghxstship/marketplace/internal/permission"
	"github.com/ghxstship/marketplace/internal/transfer"
	"github.com/ghxstship/marketplace/model"
)

func handleExportTemplates(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"templates": transfer.ExportTemplates()})
}

func handleImportTemplates(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"templates": transfer.ImportTemplates()})
}

// exportFields resolves the field list for an export request: an explicit
// fields parameter wins, then a named template, then the exporter default.
func exportFields(r *http.Request) ([]string, error) {
	if raw := r.URL.Query().Get("fields"); raw != "" {
		return strings.Split(raw, ","), nil
	}
	if name := r.URL.Query().Get("template"); name != "" {
		tpl, ok := transfer.ExportTemplate(name)
		if !ok {
			return nil, model.NewBadRequestError("Unknown export template")
		}
		return tpl.Fields, nil
	}
	return nil, nil
}

func handleExport(engine *crud.Engine, resolver *permission.Resolver, exporter *transfer.Exporter, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		roles, err := resolver.GetUserRoles(r.Context(), rctx.OrgID, rctx.UserID)
		if err != nil {
			WriteError(w, err)
			return
		}
		if !resolver.CanExport(roles) {
			WriteForbidden(w, "Insufficient permissions to export")
			return
		}

		format := transfer.Format(r.URL.Query().Get("format"))
		if format == "" {
			format = transfer.FormatCSV
		}
		fields, err := exportFields(r)
		if err != nil {
			WriteError(w, err)
			return
		}

		records, err := engine.List(r.Context(), rctx, entity, parseFilters(r))
		if err != nil {
			WriteError(w, err)
			return
		}

		result, err := exporter.Export(entity, records, format, fields)
		if err != nil {
			WriteError(w, err)
			return
		}
		if metrics != nil {
			metrics.RecordExport(string(entity), string(format), len(records))
		}

		// Structured formats return JSON; binary and text formats download.
		if result.Format == transfer.FormatPDF {
			WriteJSON(w, http.StatusOK, result)
			return
		}
		w.Header().Set("Content-Type", result.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(result.Data)
	}
}

// importRequest is the body of POST /api/{entity}/import and its preview.
// Raw carries the payload inline; CSV and JSON as text, workbooks base64.
type importRequest struct {
	Format  string                 `json:"format"`
	Raw     []byte                 `json:"raw"`
	Options transfer.ImportOptions `json:"options"`
}

func decodeImportRequest(r *http.Request, maxBytes int) (*importRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, int64(maxBytes)+1))
	if err != nil {
		return nil, model.NewBadRequestError("Unreadable request body")
	}
	if len(body) > maxBytes {
		return nil, model.NewBadRequestError("Import payload too large")
	}
	var req importRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, model.NewBadRequestError("Invalid JSON body")
	}
	if len(req.Raw) == 0 {
		return nil, model.NewBadRequestError("Empty import payload")
	}
	return &req, nil
}

func handleImportPreview(importer *transfer.Importer, maxBytes, previewRows int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := entityParam(r); !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		req, err := decodeImportRequest(r, maxBytes)
		if err != nil {
			WriteError(w, err)
			return
		}

		preview, err := importer.PreviewImport(transfer.Format(req.Format), req.Raw, previewRows)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, preview)
	}
}

func handleImport(importer *transfer.Importer, resolver *permission.Resolver, metrics *observability.Metrics, maxBytes, maxRows int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		roles, err := resolver.GetUserRoles(r.Context(), rctx.OrgID, rctx.UserID)
		if err != nil {
			WriteError(w, err)
			return
		}
		if !resolver.CanImport(roles) {
			WriteForbidden(w, "Insufficient permissions to import")
			return
		}

		req, err := decodeImportRequest(r, maxBytes)
		if err != nil {
			WriteError(w, err)
			return
		}

		preview, err := importer.PreviewImport(transfer.Format(req.Format), req.Raw, 0)
		if err != nil {
			WriteError(w, err)
			return
		}
		if maxRows > 0 && len(preview.Preview) > maxRows {
			WriteError(w, model.NewBadRequestError("Import exceeds the row limit"))
			return
		}

		result, err := importer.Import(r.Context(), rctx, entity, transfer.Format(req.Format), req.Raw, req.Options)
		if err != nil {
			WriteError(w, err)
			return
		}
		if metrics != nil {
			status := "success"
			if len(result.Errors) > 0 {
				status = "partial"
			}
			metrics.RecordImport(string(entity), req.Format, status,
				result.Imported, result.Skipped, len(result.Errors))
		}
		WriteJSON(w, http.StatusOK, result)
	}
}
