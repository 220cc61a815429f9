package testingx

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/immuni/upload-client/internal/ingestion"
	"github.com/immuni/upload-client/internal/runtimex"
)

// IngestionUpload is an upload received by [*IngestionServer].
type IngestionUpload struct {
	// Authorization is the Authorization header value.
	Authorization string

	// Body is the parsed request body.
	Body *ingestion.Body

	// ClientClock is the parsed client clock.
	ClientClock time.Time

	// Dummy is true for dummy uploads.
	Dummy bool

	// Header contains all the request headers.
	Header http.Header

	// RawBody is the raw request body.
	RawBody []byte
}

// IngestionServer implements the ingestion service for testing.
//
// The zero value is ready to use.
//
// This struct methods panics for several errors. Only use for testing purposes!
type IngestionServer struct {
	// Now is the OPTIONAL function used to generate the Date
	// response header. When nil, the Date header is the one
	// automatically set by net/http.
	Now func() time.Time

	// StatusCode is the OPTIONAL status code for valid uploads. When
	// zero we use [http.StatusNoContent].
	StatusCode int

	// ValidateUpload is an OPTIONAL callback to validate the incoming
	// upload beyond the checks on the wire format. Returning an error
	// causes a 401 response, the same response for real and dummy uploads.
	ValidateUpload func(upload *IngestionUpload) error

	// mu provides mutual exclusion.
	mu sync.Mutex

	// uploads contains the received uploads.
	uploads []*IngestionUpload
}

var authorizationPattern = regexp.MustCompile(`^Bearer [0-9a-f]{64}$`)

// Uploads returns the uploads received so far.
//
// This method is safe to call concurrently with other methods.
func (is *IngestionServer) Uploads() []*IngestionUpload {
	is.mu.Lock()
	defer is.mu.Unlock()
	out := make([]*IngestionUpload, len(is.uploads))
	copy(out, is.uploads)
	return out
}

// ServeHTTP implements [http.Handler].
//
// This method is safe to call concurrently with other methods.
func (is *IngestionServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if is.Now != nil {
		w.Header().Set("Date", is.Now().UTC().Format(http.TimeFormat))
	}

	// make sure that the method is POST
	if r.Method != http.MethodPost {
		log.Printf("IngestionServer: invalid method")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// make sure the URL path is the upload path
	if r.URL.Path != ingestion.URLPath {
		log.Printf("IngestionServer: invalid URL path")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	upload, err := is.parseUpload(r)
	if err != nil {
		log.Printf("IngestionServer: %s", err.Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// optionally allow the user to validate the upload
	if is.ValidateUpload != nil {
		if err := is.ValidateUpload(upload); err != nil {
			log.Printf("IngestionServer: unauthorized upload: %s", err.Error())
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	is.mu.Lock()
	is.uploads = append(is.uploads, upload)
	is.mu.Unlock()

	status := is.StatusCode
	if status == 0 {
		status = http.StatusNoContent
	}
	w.WriteHeader(status)
}

// parseUpload validates the wire format of an upload.
func (is *IngestionServer) parseUpload(r *http.Request) (*IngestionUpload, error) {
	// make sure that the content-type is JSON
	if r.Header.Get("Content-Type") != "application/json; charset=UTF-8" {
		return nil, errors.New("invalid content-type header")
	}

	// make sure the request is cache hostile
	if r.Header.Get("Cache-Control") != "no-cache, no-store, max-age=0" || r.Header.Get("Pragma") != "no-cache" {
		return nil, errors.New("invalid cache headers")
	}

	// make sure the OTP arrives as a SHA-256 digest
	authorization := r.Header.Get("Authorization")
	if !authorizationPattern.MatchString(authorization) {
		return nil, errors.New("invalid authorization header")
	}

	var dummy bool
	switch r.Header.Get(ingestion.HeaderDummyData) {
	case "0":
	case "1":
		dummy = true
	default:
		return nil, errors.New("invalid dummy data header")
	}

	seconds, err := strconv.ParseInt(r.Header.Get(ingestion.HeaderClientClock), 10, 64)
	if err != nil {
		return nil, errors.New("invalid client clock header")
	}

	// read the raw request body or panic if we cannot read it
	rawBody := runtimex.Try1(io.ReadAll(r.Body))

	var body ingestion.Body
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil, err
	}
	if body.Province == "" || body.Teks == nil || body.ExposureDetectionSummaries == nil {
		return nil, errors.New("incomplete body")
	}

	upload := &IngestionUpload{
		Authorization: authorization,
		Body:          &body,
		ClientClock:   time.Unix(seconds, 0).UTC(),
		Dummy:         dummy,
		Header:        r.Header.Clone(),
		RawBody:       rawBody,
	}
	return upload, nil
}
