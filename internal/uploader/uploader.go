// Package uploader sends genuine and dummy uploads to the ingestion
// service.
//
// Both kinds of upload go through the same [*ingestion.Builder] and the
// same transport, so they only differ in the values of the headers and
// in the body. Genuine uploads additionally feed the size profile used
// to pad dummy bodies.
package uploader

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/immuni/upload-client/internal/clockx"
	"github.com/immuni/upload-client/internal/httpapi"
	"github.com/immuni/upload-client/internal/ingestion"
	"github.com/immuni/upload-client/internal/model"
	"github.com/immuni/upload-client/internal/otp"
	"github.com/immuni/upload-client/internal/scrubber"
	"github.com/immuni/upload-client/internal/sizeprofile"
)

// ErrZeroToken indicates that a genuine upload was attempted without an OTP.
var ErrZeroToken = errors.New("uploader: empty OTP")

// Config contains config for [New].
type Config struct {
	// BaseURL OPTIONALLY overrides [ingestion.BaseURL].
	BaseURL string

	// Builder is the MANDATORY request builder. It must have a dummy
	// generator for [*Uploader.UploadDummy] to work.
	Builder *ingestion.Builder

	// HTTPClient is the OPTIONAL HTTP client. We use [http.DefaultClient]
	// when not set.
	HTTPClient model.HTTPClient

	// KVStore is the OPTIONAL store where we persist the size profile
	// after each genuine upload.
	KVStore model.KeyValueStore

	// Logger is the OPTIONAL logger. We always scrub messages.
	Logger model.Logger

	// Now is the OPTIONAL client clock. We use [clockx.System] when not set.
	Now clockx.Source

	// Offset OPTIONALLY tracks the server clock.
	Offset *clockx.Offset

	// Profile is the OPTIONAL profile where we record genuine shapes.
	Profile *sizeprofile.Profile

	// Rand is the OPTIONAL source of randomness for dummy OTPs.
	Rand io.Reader
}

// Result is the result of an upload.
type Result struct {
	// AttemptID identifies the attempt in local logs. It is never sent.
	AttemptID string

	// Dummy is true for dummy uploads.
	Dummy bool

	// Size is the size of the request body.
	Size int

	// StatusCode is the status code returned by the server. Zero if
	// we did not receive a response.
	StatusCode int
}

// Uploader sends uploads. It's safe to use from multiple goroutines.
type Uploader struct {
	builder  *ingestion.Builder
	endpoint *httpapi.Endpoint
	kvs      model.KeyValueStore
	logger   model.Logger
	mu       sync.Mutex
	now      clockx.Source
	offset   *clockx.Offset
	profile  *sizeprofile.Profile
	rand     io.Reader
}

// New creates a new [*Uploader].
func New(config *Config) *Uploader {
	logger := scrubber.Wrap(config.Logger)
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	offset := config.Offset
	if offset == nil {
		offset = &clockx.Offset{}
	}
	r := config.Rand
	if r == nil {
		r = rand.Reader
	}
	return &Uploader{
		builder: config.Builder,
		endpoint: &httpapi.Endpoint{
			BaseURL:    config.BaseURL,
			HTTPClient: client,
			Logger:     logger,
		},
		kvs:     config.KVStore,
		logger:  logger,
		now:     clockx.OrSystem(config.Now),
		offset:  offset,
		profile: config.Profile,
		rand:    r,
	}
}

// Upload performs a genuine upload of body authenticated by token.
func (u *Uploader) Upload(ctx context.Context, body *ingestion.Body, token otp.Token) (*Result, error) {
	if token.IsZero() {
		return nil, ErrZeroToken
	}
	desc := u.builder.Build(body, token, u.now, false)
	result, err := u.send(ctx, desc, false)
	if result.StatusCode > 0 {
		// the server saw the upload
		u.record(body.Shape())
	}
	return result, err
}

// UploadDummy performs a dummy upload authenticated by a random OTP.
func (u *Uploader) UploadDummy(ctx context.Context) (*Result, error) {
	token, err := otp.Generate(u.rand)
	if err != nil {
		return nil, fmt.Errorf("uploader: cannot generate dummy OTP: %w", err)
	}
	desc := u.builder.BuildDummy(token, u.now)
	return u.send(ctx, desc, true)
}

// send sends the upload described by desc.
func (u *Uploader) send(ctx context.Context, desc *httpapi.Descriptor, dummy bool) (*Result, error) {
	result := &Result{
		AttemptID: uuid.NewString(),
		Dummy:     dummy,
		Size:      len(desc.RequestBody),
	}
	u.logger.Debugf("uploader: attempt %s: dummy=%v size=%d", result.AttemptID, dummy, result.Size)
	resp, err := httpapi.Call(ctx, desc, u.endpoint)
	if resp != nil {
		result.StatusCode = resp.StatusCode
		u.offset.SaveDateHeader(resp.Header.Get("Date"))
		u.offset.MaybeWarnAboutClockBeingOff(u.logger)
	}
	if err != nil {
		u.logger.Warnf("uploader: attempt %s: %s", result.AttemptID, err.Error())
		return result, fmt.Errorf("uploader: %w", err)
	}
	u.logger.Infof("uploader: attempt %s: status %d", result.AttemptID, result.StatusCode)
	return result, nil
}

// record records a genuine shape and persists the profile.
func (u *Uploader) record(shape sizeprofile.Shape) {
	if u.profile == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.profile.Record(shape)
	if u.kvs == nil {
		return
	}
	if err := u.profile.Save(u.kvs); err != nil {
		u.logger.Warnf("uploader: cannot save the size profile: %s", err.Error())
	}
}
