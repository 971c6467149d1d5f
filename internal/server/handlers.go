package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/interpret"
	"github.com/vanallenlab/almanac/internal/logging"
	"github.com/vanallenlab/almanac/internal/store"
)

// SearchResponse is the body of a successful /search.
type SearchResponse struct {
	RequestID      string              `json:"request_id"`
	Query          string              `json:"query"`
	Interpretation map[string][]string `json:"interpretation"`
	Count          int                 `json:"count"`
	Rows           []store.Row         `json:"rows"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

// structuredParams maps fallback parameters to categories. Gene values
// become gene-typed attribute phrases.
var structuredParams = []struct {
	param    string
	category category.Category
	prefix   string
}{
	{"g", category.Attribute, "gene:"},
	{"d", category.Disease, ""},
	{"p", category.Pred, ""},
	{"t", category.Therapy, ""},
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx, s.logger)
	params := r.URL.Query()

	var q *interpret.Query
	if raw := strings.TrimSpace(strings.Join(params["s"], " ")); raw != "" {
		var err error
		q, err = s.interpreter.Interpret(ctx, raw)
		if err != nil {
			logger.Error("interpret failed", "query", raw, "error", err)
			s.observeSearch(0, err)
			writeError(w, r, http.StatusInternalServerError, "search failed")
			return
		}
	} else {
		q = structuredQuery(params)
	}

	if s.metrics != nil {
		for c, phrases := range q.Categories {
			s.metrics.ObservePhrases(c.String(), len(phrases))
		}
	}

	rows, err := s.searcher.Search(ctx, q.Categories)
	if err != nil {
		logger.Error("search failed", "query", q.Raw, "error", err)
		s.observeSearch(0, err)
		writeError(w, r, http.StatusInternalServerError, "search failed")
		return
	}
	s.observeSearch(len(rows), nil)

	logger.Info("search",
		"query", q.Raw,
		"phrases", len(q.Entries),
		"rows", len(rows),
	)
	writeJSON(w, http.StatusOK, SearchResponse{
		RequestID:      w.Header().Get(requestIDHeader),
		Query:          q.Raw,
		Interpretation: q.MarshalMap(),
		Count:          len(rows),
		Rows:           rows,
	})
}

func structuredQuery(params url.Values) *interpret.Query {
	lists := make(map[category.Category][]string)
	var raw []string
	for _, p := range structuredParams {
		values := params[p.param]
		joined := strings.TrimSpace(strings.Join(values, ","))
		if joined == "" {
			continue
		}
		raw = append(raw, p.param+"="+joined)
		for _, v := range values {
			for _, item := range strings.Split(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					lists[p.category] = append(lists[p.category], p.prefix+item)
				}
			}
		}
	}
	return interpret.Structured(strings.Join(raw, "&"), lists)
}

func (s *Server) observeSearch(rows int, err error) {
	if s.metrics != nil {
		s.metrics.ObserveSearch(rows, err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, _ *http.Request, status int, msg string) {
	writeJSON(w, status, ErrorResponse{
		RequestID: w.Header().Get(requestIDHeader),
		Error:     msg,
	})
}
