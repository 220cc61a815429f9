package httpapi

//
// HTTP API descriptor (e.g., POST /v1/ingestion/upload)
//

import (
	"net/http"
	"slices"
	"time"
)

// CachePolicy tells every cache between us and the server what it may
// do with the request and its response.
type CachePolicy int

const (
	// UseProtocolCachePolicy leaves caching to the HTTP protocol defaults.
	UseProtocolCachePolicy = CachePolicy(iota)

	// ReloadIgnoringLocalAndRemoteCacheData forbids local and remote
	// caches from serving or storing the request and its response.
	ReloadIgnoringLocalAndRemoteCacheData
)

// String implements fmt.Stringer.
func (cp CachePolicy) String() string {
	switch cp {
	case ReloadIgnoringLocalAndRemoteCacheData:
		return "reload_ignoring_local_and_remote_cache_data"
	default:
		return "use_protocol_cache_policy"
	}
}

// Headers returns the request headers implementing the policy.
func (cp CachePolicy) Headers() http.Header {
	out := http.Header{}
	if cp == ReloadIgnoringLocalAndRemoteCacheData {
		out.Set("Cache-Control", "no-cache, no-store, max-age=0")
		out.Set("Pragma", "no-cache")
	}
	return out
}

// Descriptor contains the parameters for calling a given HTTP
// API (e.g., POST /v1/ingestion/upload).
//
// A Descriptor is READ-ONLY once constructed: [Call] never modifies it
// and code that needs a variant MUST use [Descriptor.Clone].
type Descriptor struct {
	// BaseURL is the MANDATORY origin (e.g., https://upload.immuni.gov.it).
	BaseURL string

	// CachePolicy is the OPTIONAL cache policy.
	CachePolicy CachePolicy

	// Header contains the OPTIONAL request headers.
	Header http.Header

	// Method is the MANDATORY request method.
	Method string

	// RequestBody is the OPTIONAL request body.
	RequestBody []byte

	// Timeout is the OPTIONAL timeout for this call. If no timeout
	// is specified we will use the |DefaultCallTimeout| const.
	Timeout time.Duration

	// URLPath is the MANDATORY URL path.
	URLPath string
}

// DefaultMaxBodySize is the default value for the maximum
// response body size we are willing to read.
const DefaultMaxBodySize = 1 << 22

// DefaultCallTimeout is the default timeout for an httpapi call.
const DefaultCallTimeout = 60 * time.Second

// ApplicationJSONUTF8 is the content-type for JSON with explicit charset.
const ApplicationJSONUTF8 = "application/json; charset=UTF-8"

// Clone returns a DEEP COPY of the descriptor.
func (desc *Descriptor) Clone() *Descriptor {
	out := &Descriptor{}
	*out = *desc
	out.Header = desc.Header.Clone()
	out.RequestBody = slices.Clone(desc.RequestBody)
	return out
}

// AllHeaders returns the headers that will be sent, including the ones
// implementing the cache policy.
func (desc *Descriptor) AllHeaders() http.Header {
	out := desc.CachePolicy.Headers()
	for key, values := range desc.Header {
		out[key] = slices.Clone(values)
	}
	return out
}

// HeaderNames returns the sorted canonical names of [Descriptor.AllHeaders].
func (desc *Descriptor) HeaderNames() []string {
	var names []string
	for key := range desc.AllHeaders() {
		names = append(names, http.CanonicalHeaderKey(key))
	}
	slices.Sort(names)
	return names
}
