package http

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/pagelens"
)

// scrapeRequest is the body of POST /api/scrape.
type scrapeRequest struct {
	URL       string                  `json:"url"`
	Selectors pagelens.FieldSelectors `json:"selectors,omitempty"`
}

// scrapeResponse flattens a snapshot into html, styles, rendered and text
// (plus outline and markdown when produced).
type scrapeResponse struct {
	*pagelens.CapturedPage
	*pagelens.Rendering
}

// extractResponse wraps field extraction results.
type extractResponse struct {
	Data pagelens.ExtractionResult `json:"data"`
}

// errorResponse is the body of every error reply.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "URL is required"})
		return
	}

	if len(req.Selectors) > 0 {
		result, err := s.pages.Extract(r.Context(), req.URL, req.Selectors)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, extractResponse{Data: result})
		return
	}

	snap, err := s.pages.Capture(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scrapeResponse{CapturedPage: snap.Page, Rendering: snap.Rendering})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("url")) == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "URL is required"})
		return
	}
	view := pagelens.ViewRendered
	if v := q.Get("view"); v != "" {
		view = pagelens.View(v)
	}
	if !slices.Contains(pagelens.Views(), view) {
		s.writeError(w, r, pagelens.Errorf(pagelens.EINVALID, "unknown view %q", view))
		return
	}

	snap, err := s.pages.Capture(r.Context(), q.Get("url"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	content, err := snap.View(view)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64String(content), 16) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", view.ContentType())
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

// writeError maps an application error to a status code and JSON body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := pagelens.ErrorCode(err), pagelens.ErrorMessage(err)

	switch code {
	case pagelens.EINVALID:
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
	case pagelens.ENOTFOUND:
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: msg})
	case pagelens.ECAPTURE:
		s.logger.Warn("capture failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Failed to scrape the URL", Details: msg})
	default:
		s.logger.Error("request failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}
