package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/psaab/cmdgraph/pkg/cmdtree"
	"github.com/psaab/cmdgraph/pkg/compiler"
	"github.com/psaab/cmdgraph/pkg/logging"
)

// maxBodySize bounds request bodies for the mutation endpoints.
const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Success: false, Error: msg})
}

// compileStatus maps a Define error to an HTTP status.
func compileStatus(err error) int {
	switch {
	case errors.Is(err, compiler.ErrDuplicateCommand), errors.Is(err, cmdtree.ErrNameInUse):
		return http.StatusConflict
	case errors.Is(err, compiler.ErrSyntax), errors.Is(err, compiler.ErrMalformedRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, _ *http.Request) {
	stats := s.store().Stats()
	writeOK(w, StatusResponse{
		Uptime:      time.Since(s.startTime).Truncate(time.Second).String(),
		Nodes:       stats.Total,
		Commands:    stats.Commands(),
		Definitions: len(s.registry.Definitions()),
	})
}

func (s *Server) graphHandler(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := s.store().Dump(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOK(w, TextResponse{Output: buf.String()})
}

func (s *Server) graphDOTHandler(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := s.store().WriteDOT(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) graphStatsHandler(w http.ResponseWriter, _ *http.Request) {
	stats := s.store().Stats()
	resp := StatsResponse{
		Total:    stats.Total,
		Commands: stats.Commands(),
		ByKind:   make(map[string]int, len(stats.ByKind)),
	}
	for k, n := range stats.ByKind {
		resp.ByKind[k.String()] = n
	}
	writeOK(w, resp)
}

func (s *Server) commandsHandler(w http.ResponseWriter, r *http.Request) {
	defs := s.registry.Definitions()
	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		filtered := defs[:0]
		for _, d := range defs {
			if strings.HasPrefix(d.Format, prefix) {
				filtered = append(filtered, d)
			}
		}
		defs = filtered
	}
	if defs == nil {
		defs = []*cmdtree.Definition{}
	}
	writeOK(w, defs)
}

func (s *Server) commandHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	d, ok := s.registry.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "no such definition: "+name)
		return
	}
	writeOK(w, d)
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusServiceUnavailable, "event buffer not available")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}
	var recs []logging.EventRecord
	if r.URL.Query().Get("failed") == "true" {
		recs = s.events.LatestFailed(limit)
	} else {
		recs = s.events.Latest(limit)
	}
	if recs == nil {
		recs = []logging.EventRecord{}
	}
	writeOK(w, recs)
}

func (s *Server) compileHandler(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.Format = strings.TrimSpace(req.Format)
	if req.Format == "" {
		writeError(w, http.StatusBadRequest, "format is required")
		return
	}
	if req.Privilege < 0 || req.Privilege > 15 {
		writeError(w, http.StatusBadRequest, "privilege out of range 0-15")
		return
	}

	d := &cmdtree.Definition{
		Name:      req.Name,
		Format:    req.Format,
		Help:      req.Help,
		Privilege: req.Privilege,
	}
	if err := s.registry.Define(d); err != nil {
		writeError(w, compileStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, Response{
		Success: true,
		Data:    CompileResponse{Definition: d, Nodes: s.store().Len()},
	})
}

func (s *Server) loadHandler(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	defs, err := cmdtree.Parse([]byte(req.YAML))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report := s.registry.Register(defs)
	resp := LoadResponse{
		Compiled: len(report.Results) - report.Failed(),
		Rejected: report.Failed(),
		Results:  make([]LoadResult, 0, len(report.Results)),
	}
	for _, res := range report.Results {
		lr := LoadResult{Name: res.Def.Name, Outcome: compiler.Outcome(res.Err)}
		if res.Err != nil {
			lr.Error = res.Err.Error()
		}
		resp.Results = append(resp.Results, lr)
	}
	writeOK(w, resp)
}

func (s *Server) resetHandler(w http.ResponseWriter, _ *http.Request) {
	s.registry.Reset()
	writeOK(w, map[string]string{"status": "reset"})
}
