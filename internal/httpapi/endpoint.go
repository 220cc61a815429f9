package httpapi

import "github.com/immuni/upload-client/internal/model"

// Endpoint is the transport-side configuration for calling an API
// described by a [Descriptor].
//
// The zero value is invalid; initialize the MANDATORY fields.
type Endpoint struct {
	// BaseURL OPTIONALLY overrides [Descriptor.BaseURL]. Only use it to
	// point a client at a staging or test backend.
	BaseURL string

	// HTTPClient is the MANDATORY HTTP client to use.
	HTTPClient model.HTTPClient

	// Host is the OPTIONAL host header to use for fronting.
	Host string

	// Logger is the MANDATORY logger to use.
	Logger model.Logger
}
