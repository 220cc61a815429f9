// Package httpapi describes HTTP API calls as immutable descriptors and
// executes them.
package httpapi

//
// Calling HTTP APIs.
//

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// joinURLPath appends |resourcePath| to |urlPath|.
func joinURLPath(urlPath, resourcePath string) string {
	if resourcePath == "" {
		if urlPath == "" {
			return "/"
		}
		return urlPath
	}
	if !strings.HasSuffix(urlPath, "/") {
		urlPath += "/"
	}
	resourcePath = strings.TrimPrefix(resourcePath, "/")
	return urlPath + resourcePath
}

// NewRequest creates a new http.Request from the given |ctx|, |endpoint|, and |desc|.
func NewRequest(ctx context.Context, endpoint *Endpoint, desc *Descriptor) (*http.Request, error) {
	baseURL := desc.BaseURL
	if endpoint.BaseURL != "" {
		baseURL = endpoint.BaseURL
	}
	URL, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	// BaseURL and resource URL are joined if they have a path
	URL.Path = joinURLPath(URL.Path, desc.URLPath)
	URL.RawQuery = ""
	var reqBody io.Reader
	if len(desc.RequestBody) > 0 {
		reqBody = bytes.NewReader(desc.RequestBody)
	}
	request, err := http.NewRequestWithContext(ctx, desc.Method, URL.String(), reqBody)
	if err != nil {
		return nil, err
	}
	request.Host = endpoint.Host // allow fronting
	request.Header = desc.AllHeaders()
	return request, nil
}

// ErrHTTPRequestFailed indicates that the server returned >= 400.
type ErrHTTPRequestFailed struct {
	// StatusCode is the status code that failed.
	StatusCode int
}

// Error implements error.
func (err *ErrHTTPRequestFailed) Error() string {
	return fmt.Sprintf("httpapi: http request failed: %d", err.StatusCode)
}

// Response is the result of a successful [Call].
type Response struct {
	// StatusCode is the response status code.
	StatusCode int

	// Header contains the response headers.
	Header http.Header

	// Body contains the response body, truncated at DefaultMaxBodySize.
	Body []byte
}

// docall executes |request| on |endpoint| and reads the response.
func docall(endpoint *Endpoint, request *http.Request) (*Response, error) {
	response, err := endpoint.HTTPClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	r := io.LimitReader(response.Body, DefaultMaxBodySize)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	endpoint.Logger.Debugf("httpapi: response body length: %d bytes", len(data))
	out := &Response{
		StatusCode: response.StatusCode,
		Header:     response.Header,
		Body:       data,
	}
	if response.StatusCode >= 400 {
		return out, &ErrHTTPRequestFailed{response.StatusCode}
	}
	return out, nil
}

// Call invokes the API described by |desc| on the given HTTP |endpoint|.
//
// Note: this function returns ErrHTTPRequestFailed if the HTTP status code is
// greater or equal than 400, along with the response so that the caller can
// still inspect its headers. You could use errors.As to obtain a copy of the
// error that was returned and see for yourself the actual status code.
//
// Request bodies are never logged, only their length.
func Call(ctx context.Context, desc *Descriptor, endpoint *Endpoint) (*Response, error) {
	timeout := desc.Timeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout // as documented
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	request, err := NewRequest(ctx, endpoint, desc)
	if err != nil {
		return nil, err
	}
	endpoint.Logger.Debugf("httpapi: %s %s: request body length: %d",
		desc.Method, desc.URLPath, len(desc.RequestBody))
	return docall(endpoint, request)
}
