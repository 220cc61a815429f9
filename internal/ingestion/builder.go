package ingestion

//
// POST /v1/ingestion/upload
//

import (
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/immuni/upload-client/internal/clockx"
	"github.com/immuni/upload-client/internal/httpapi"
	"github.com/immuni/upload-client/internal/model"
	"github.com/immuni/upload-client/internal/otp"
	"github.com/immuni/upload-client/internal/runtimex"
	"github.com/immuni/upload-client/internal/version"
)

const (
	// BaseURL is the origin of the ingestion service.
	BaseURL = "https://upload.immuni.gov.it"

	// URLPath is the path of the upload API.
	URLPath = "/v1/ingestion/upload"

	// HeaderDummyData is the header telling the server whether the
	// upload is a dummy one.
	HeaderDummyData = "Immuni-Dummy-Data"

	// HeaderClientClock is the header carrying the client clock as
	// seconds since the Unix epoch.
	HeaderClientClock = "Immuni-Client-Clock"
)

// DefaultUserAgent is the default User-Agent header.
var DefaultUserAgent = fmt.Sprintf(
	"%s/%s (%s)", model.HTTPHeaderUserAgentPrefix, version.Version, runtime.GOOS)

// BuilderConfig contains config for [NewBuilder].
type BuilderConfig struct {
	// Generator is the OPTIONAL dummy generator used by [Builder.BuildDummy].
	Generator *DummyGenerator

	// Timeout is the OPTIONAL per-request timeout.
	Timeout time.Duration

	// UserAgent is the OPTIONAL User-Agent. We use [DefaultUserAgent]
	// when empty.
	UserAgent string
}

// Builder builds upload [*httpapi.Descriptor]. A Builder is immutable
// and safe for concurrent use.
type Builder struct {
	baseline  http.Header
	generator *DummyGenerator
	timeout   time.Duration
}

// NewBuilder creates a new [Builder].
func NewBuilder(config *BuilderConfig) *Builder {
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Builder{
		baseline:  BaselineHeaders(userAgent),
		generator: config.Generator,
		timeout:   config.Timeout,
	}
}

// BaselineHeaders returns the headers shared by every request the
// client sends.
func BaselineHeaders(userAgent string) http.Header {
	out := http.Header{}
	out.Set("Accept", model.HTTPHeaderAccept)
	out.Set("User-Agent", userAgent)
	return out
}

// ClientClock formats t for the [HeaderClientClock] header.
func ClientClock(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// DummyData formats dummy for the [HeaderDummyData] header.
func DummyData(dummy bool) string {
	if dummy {
		return "1"
	}
	return "0"
}

// Build returns the descriptor of an upload of body authenticated by
// token. The now clock is sampled exactly once. Real and dummy uploads
// only differ in the values of the headers and in the body.
//
// This function panics if now is nil.
func (b *Builder) Build(body *Body, token otp.Token, now clockx.Source, dummy bool) *httpapi.Descriptor {
	runtimex.PanicIfTrue(now == nil, "ingestion: passed nil clock")
	runtimex.PanicIfTrue(body == nil, "ingestion: passed nil body")
	stamp := now()
	header := b.baseline.Clone()
	header.Set("Authorization", otp.BearerAuthorization(token))
	header.Set("Content-Type", httpapi.ApplicationJSONUTF8)
	header.Set(HeaderDummyData, DummyData(dummy))
	header.Set(HeaderClientClock, ClientClock(stamp))
	return &httpapi.Descriptor{
		BaseURL:     BaseURL,
		CachePolicy: httpapi.ReloadIgnoringLocalAndRemoteCacheData,
		Header:      header,
		Method:      http.MethodPost,
		RequestBody: body.Marshal(),
		Timeout:     b.timeout,
		URLPath:     URLPath,
	}
}

// BuildDummy generates a dummy body using the configured generator and
// builds a dummy upload with it.
//
// This function panics if the builder has no generator.
func (b *Builder) BuildDummy(token otp.Token, now clockx.Source) *httpapi.Descriptor {
	runtimex.PanicIfTrue(b.generator == nil, "ingestion: builder without dummy generator")
	return b.Build(b.generator.Generate(), token, now, true)
}
