package export

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/linework/linework/backend-go/internal/document"
	"github.com/linework/linework/backend-go/internal/render"
)

const maxRequestSize = 50 << 20 // 50MB, documents may embed image payloads

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

type exportRequest struct {
	Document   json.RawMessage `json:"document"`
	Scale      float64         `json:"scale"`
	FillMode   bool            `json:"fillMode"`
	Background string          `json:"background"`
	Name       string          `json:"name"`
}

func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	req, doc, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}

	// Out-of-range scales are clamped rather than rejected.
	scale := req.Scale
	if scale <= 0 {
		scale = 1
	}
	if scale > 8 {
		scale = 8
	}

	slog.Info("export started", "format", "png", "elements", len(doc.Elements), "scale", scale)

	var buf bytes.Buffer
	err := render.RenderPNG(&buf, doc, render.Options{
		Scale:      scale,
		FillMode:   req.FillMode,
		Background: req.Background,
	})
	if err != nil {
		slog.Error("render png", "error", err)
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}

	writeAttachment(w, buf.Bytes(), "image/png", exportName(req.Name)+".png")
	slog.Info("export complete", "format", "png", "size", buf.Len())
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	req, doc, ok := decodeExportRequest(w, r)
	if !ok {
		return
	}

	slog.Info("export started", "format", "pdf", "elements", len(doc.Elements))

	var buf bytes.Buffer
	if err := render.RenderPDF(&buf, doc, render.Options{FillMode: req.FillMode}); err != nil {
		slog.Error("render pdf", "error", err)
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}

	writeAttachment(w, buf.Bytes(), "application/pdf", exportName(req.Name)+".pdf")
	slog.Info("export complete", "format", "pdf", "size", buf.Len())
}

func decodeExportRequest(w http.ResponseWriter, r *http.Request) (*exportRequest, *document.Document, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, nil, false
	}
	if len(req.Document) == 0 {
		http.Error(w, "document is required", http.StatusBadRequest)
		return nil, nil, false
	}

	var doc document.Document
	if err := json.Unmarshal(req.Document, &doc); err != nil {
		http.Error(w, "invalid document", http.StatusUnprocessableEntity)
		return nil, nil, false
	}
	if len(doc.Elements) == 0 {
		http.Error(w, "document has no elements", http.StatusUnprocessableEntity)
		return nil, nil, false
	}

	return &req, &doc, true
}

func writeAttachment(w http.ResponseWriter, data []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// exportName sanitizes the client-supplied filename stem.
func exportName(name string) string {
	if name == "" {
		name = "sketch"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
