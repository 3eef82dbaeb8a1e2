package web

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/partsdesk/internal/core"
	"github.com/JonMunkholm/partsdesk/internal/logging"
)

type templateInfo struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Columns  []string `json:"columns"`
	Required []string `json:"required"`
	CSV      string   `json:"csv"`
	XLSX     string   `json:"xlsx"`
}

// handleListTemplates lists every downloadable import template.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	schemas := core.Schemas()
	out := make([]templateInfo, 0, len(schemas))
	for _, sc := range schemas {
		base := templateBase(sc.Key)
		out = append(out, templateInfo{
			Key:      sc.Key,
			Label:    sc.Label,
			Columns:  sc.Columns(),
			Required: sc.Required(),
			CSV:      "/api/templates/" + base + ".csv",
			XLSX:     "/api/templates/" + base + ".xlsx",
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDownloadTemplate serves /api/templates/{name}.{csv|xlsx}. "items"
// names the purchase item layout; component kinds name their own.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	ext := strings.ToLower(path.Ext(file))
	base := strings.ToLower(strings.TrimSuffix(file, path.Ext(file)))

	key := base
	if base == "items" {
		key = core.ItemSchemaKey
	}
	schema, ok := core.GetSchema(key)
	if !ok {
		fail(w, r, fmt.Errorf("template %q: %w", file, core.ErrNotFound))
		return
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch ext {
	case ".csv":
		contentType = "text/csv; charset=utf-8"
		err = core.WriteTemplateCSV(&buf, schema)
	case ".xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = core.WriteTemplateXLSX(&buf, schema)
	default:
		fail(w, r, fmt.Errorf("%w: %q", core.ErrUnsupportedFile, ext))
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_template%s"`, base, ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func templateBase(key string) string {
	if key == core.ItemSchemaKey {
		return "items"
	}
	return key
}

// renderHTML writes a templ component as an HTML response.
func renderHTML(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render component", "error", err)
	}
}
