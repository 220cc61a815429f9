package model

//
// Common HTTP definitions.
//

import "net/http"

// HTTPClient is an [*http.Client] like structure.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
	CloseIdleConnections()
}

var _ HTTPClient = &http.Client{}

const (
	// HTTPHeaderAccept is the Accept header sent by the client.
	HTTPHeaderAccept = "application/json"

	// HTTPHeaderUserAgentPrefix prefixes the client User-Agent.
	HTTPHeaderUserAgentPrefix = "Immuni"
)
