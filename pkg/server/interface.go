/*
Package server exposes the suggestion index over msgpack IPC and HTTP.

# IPC

The IPC server reads msgpack-encoded requests from an io.Reader (stdin in
production) and writes msgpack responses to an io.Writer (stdout). Each
request carries an ID that is echoed back.

A suggestion request, with the category left empty to query all three:

	{"id": "req_001", "q": "art", "c": "location", "l": 8}

The server answers with the matches grouped by category, the total count
and the time taken in microseconds:

	{"id": "req_001", "s": {"location": ["Gulfport Art Walk, Florida"], "creditTo": [], "tag": []}, "c": 1, "t": 42}

Other actions are selected with "a":

	{"id": "h1", "a": "health"}
	{"id": "s1", "a": "stats"}

Failures are reported as {"id": ..., "e": message, "c": code}. A source
that cannot be reached is not a failure: the answer is an empty result.

# HTTP

	GET /suggestions?q=art&category=location&limit=8
	GET /healthz

The query is stripped of markup before it reaches the index.
*/
package server

import "github.com/wondrvoices/wondrsuggest/pkg/suggest"

// Request is an IPC request.
type Request struct {
	ID       string `msgpack:"id"`
	Action   string `msgpack:"a,omitempty"` // "", "suggest", "health", "stats"
	Query    string `msgpack:"q"`
	Category string `msgpack:"c,omitempty"`
	Limit    int    `msgpack:"l,omitempty"`
}

// SuggestResponse answers a suggestion request.
type SuggestResponse struct {
	ID          string         `msgpack:"id"`
	Suggestions suggest.Result `msgpack:"s"`
	Count       int            `msgpack:"c"`
	TimeTaken   int64          `msgpack:"t"`
}

// StatusResponse answers health checks and signals readiness.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// StatsResponse reports index and server counters.
type StatsResponse struct {
	ID    string         `msgpack:"id"`
	Stats map[string]int `msgpack:"stats"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

// HTTPResponse is the JSON body of GET /suggestions.
type HTTPResponse struct {
	Query       string         `json:"query"`
	Suggestions suggest.Result `json:"suggestions"`
	Count       int            `json:"count"`
}
