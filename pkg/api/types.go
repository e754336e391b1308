// Package api implements the HTTP REST API and Prometheus metrics endpoint.
package api

import "github.com/psaab/cmdgraph/pkg/cmdtree"

// Response is the standard JSON response envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse holds sandbox status information.
type StatusResponse struct {
	Uptime      string `json:"uptime"`
	Nodes       int    `json:"nodes"`
	Commands    int    `json:"commands"`
	Definitions int    `json:"definitions"`
}

// TextResponse carries rendered text output.
type TextResponse struct {
	Output string `json:"output"`
}

// StatsResponse holds reachable node counts keyed by kind name.
type StatsResponse struct {
	Total    int            `json:"total"`
	Commands int            `json:"commands"`
	ByKind   map[string]int `json:"by_kind"`
}

// CompileRequest is the body of POST /api/v1/compile.
type CompileRequest struct {
	Name      string `json:"name"`
	Format    string `json:"format"`
	Help      string `json:"help"`
	Privilege int    `json:"privilege"`
}

// CompileResponse reports a compiled definition.
type CompileResponse struct {
	Definition *cmdtree.Definition `json:"definition"`
	Nodes      int                 `json:"nodes"`
}

// LoadRequest is the body of POST /api/v1/load: a YAML definitions document.
type LoadRequest struct {
	YAML string `json:"yaml"`
}

// LoadResult is the per-definition outcome of a bulk load.
type LoadResult struct {
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// LoadResponse summarises a bulk load.
type LoadResponse struct {
	Compiled int          `json:"compiled"`
	Rejected int          `json:"rejected"`
	Results  []LoadResult `json:"results"`
}
