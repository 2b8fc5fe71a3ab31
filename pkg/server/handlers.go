package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/lineage/pkg/buildinfo"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/genealogy"
	"github.com/matzehuels/lineage/pkg/pipeline"
	"github.com/matzehuels/lineage/pkg/render"
)

// CacheHeader reports whether a response came from the response cache.
const CacheHeader = "X-Cache"

type healthResponse struct {
	Status          string   `json:"status"`
	Classifications []string `json:"classifications"`
	Version         string   `json:"version"`
	Commit          string   `json:"commit"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          "ok",
		Classifications: s.repo.Names(),
		Version:         buildinfo.Version,
		Commit:          buildinfo.Commit,
	})
}

type classificationInfo struct {
	Name      string `json:"name"`
	Codes     int    `json:"codes"`
	Relations int    `json:"relations"`
}

func (s *Server) handleClassifications(w http.ResponseWriter, _ *http.Request) {
	out := struct {
		Classifications []classificationInfo `json:"classifications"`
	}{Classifications: []classificationInfo{}}

	for _, name := range s.repo.Names() {
		c, ok := s.repo.Get(name)
		if !ok {
			continue
		}
		out.Classifications = append(out.Classifications, classificationInfo{
			Name:      name,
			Codes:     len(c.Codes()),
			Relations: len(c.Relations),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	format := params.Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}

	req, err := parseRequest(chi.URLParam(r, "op"), params)
	if err != nil {
		writeError(w, err)
		return
	}
	if pipeline.NeedsGraph(format) {
		req.Shape = genealogy.ShapeGraph
	}

	snap, err := s.snapshot(r.Context(), params["classification"])
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.runner.Query(r.Context(), snap, req)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := pipeline.Render(r.Context(), res.Response, format, render.Options{})
	if err != nil {
		writeError(w, err)
		return
	}
	if res.CacheInfo.QueryHit {
		w.Header().Set(CacheHeader, "hit")
	} else {
		w.Header().Set(CacheHeader, "miss")
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// parseRequest turns the path operation and query string into a
// validated pipeline request. An explicit max_depth must be at least 1
// for ancestors and descendants; family defaults to DefaultFamilyDepth and
// accepts 0.
func parseRequest(opName string, params map[string][]string) (pipeline.Request, error) {
	get := func(key string) string {
		if v := params[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	op, err := genealogy.ParseOp(opName)
	if err != nil {
		return pipeline.Request{}, err
	}
	req := pipeline.Request{
		Query: genealogy.Query{
			Op:       op,
			Codes:    params["code"],
			Strategy: genealogy.Strategy(get("strategy")),
		},
		Shape:   genealogy.Shape(get("shape")),
		Refresh: get("refresh") == "true",
	}

	if raw := get("max_depth"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			return req, errors.New(errors.ErrCodeInvalidDepth, "max_depth must be an integer, got %q", raw)
		}
		if op == genealogy.OpAncestors || op == genealogy.OpDescendants {
			if err := errors.ValidateMaxDepth(d); err != nil {
				return req, err
			}
		}
		req.Query.MaxDepth = d
	} else if op == genealogy.OpFamily {
		req.Query.MaxDepth = genealogy.DefaultFamilyDepth
	}

	if raw := get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, errors.New(errors.ErrCodeInvalidArgument, "limit must be an integer, got %q", raw)
		}
		req.Query.Limit = n
	}

	if err := req.ValidateAndSetDefaults(); err != nil {
		return req, err
	}
	return req, nil
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatJSON:
		return "application/json"
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// =============================================================================
// Responses
// =============================================================================

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// statusOf maps an error code to an HTTP status.
func statusOf(err error) int {
	if errors.IsInvalid(err) {
		return http.StatusBadRequest
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeClassification, errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeLimitExceeded:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeStorage:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusOf(err), errorBody{Error: errorDetail{
		Code:    string(code),
		Message: errors.UserMessage(err),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
