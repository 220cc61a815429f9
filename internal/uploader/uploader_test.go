package uploader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/immuni/upload-client/internal/clockx"
	"github.com/immuni/upload-client/internal/httpapi"
	"github.com/immuni/upload-client/internal/ingestion"
	"github.com/immuni/upload-client/internal/kvstore"
	"github.com/immuni/upload-client/internal/model"
	"github.com/immuni/upload-client/internal/model/mocks"
	"github.com/immuni/upload-client/internal/otp"
	"github.com/immuni/upload-client/internal/province"
	"github.com/immuni/upload-client/internal/sizeprofile"
	"github.com/immuni/upload-client/internal/testingx"
)

const rawOTP = "AEFHJKLQR2"

var clientClock = time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)

// recordingLogger returns a logger saving every message into messages.
func recordingLogger(messages *[]string) model.Logger {
	mu := &sync.Mutex{}
	record := func(message string) {
		mu.Lock()
		*messages = append(*messages, message)
		mu.Unlock()
	}
	recordf := func(format string, v ...interface{}) {
		record(fmt.Sprintf(format, v...))
	}
	return &mocks.Logger{
		MockDebug:  record,
		MockDebugf: recordf,
		MockInfo:   record,
		MockInfof:  recordf,
		MockWarn:   record,
		MockWarnf:  recordf,
	}
}

type fixture struct {
	kvs      *kvstore.Memory
	messages []string
	offset   *clockx.Offset
	profile  *sizeprofile.Profile
	server   *testingx.IngestionServer
	uploader *Uploader
}

func newFixture(t *testing.T, server *testingx.IngestionServer) *fixture {
	srv := httptest.NewServer(server)
	t.Cleanup(srv.Close)
	f := &fixture{
		kvs:     &kvstore.Memory{},
		offset:  &clockx.Offset{},
		profile: sizeprofile.MustNew(sizeprofile.DefaultCapacity, sizeprofile.DefaultShapes()),
		server:  server,
	}
	generator := ingestion.MustNewDummyGenerator(&ingestion.DummyConfig{
		Catalog: province.Default(),
		Clock:   clockx.Fixed(clientClock),
		Profile: f.profile,
	})
	f.uploader = New(&Config{
		BaseURL:    srv.URL,
		Builder:    ingestion.NewBuilder(&ingestion.BuilderConfig{Generator: generator}),
		HTTPClient: http.DefaultClient,
		KVStore:    f.kvs,
		Logger:     recordingLogger(&f.messages),
		Now:        clockx.Fixed(clientClock),
		Offset:     f.offset,
		Profile:    f.profile,
	})
	return f
}

func TestUploaderUpload(t *testing.T) {
	t.Run("on success", func(t *testing.T) {
		f := newFixture(t, &testingx.IngestionServer{})
		before := f.profile.Len()
		body := ingestion.NewBody(nil, "AG", nil)

		result, err := f.uploader.Upload(context.Background(), body, otp.New(rawOTP))
		if err != nil {
			t.Fatal(err)
		}
		if result.StatusCode != http.StatusNoContent || result.Dummy || result.AttemptID == "" {
			t.Fatal("unexpected result", result)
		}

		uploads := f.server.Uploads()
		if len(uploads) != 1 {
			t.Fatal("expected one upload")
		}
		if uploads[0].Dummy {
			t.Fatal("expected a real upload")
		}
		if uploads[0].Authorization != otp.BearerAuthorization(otp.New(rawOTP)) {
			t.Fatal("unexpected authorization", uploads[0].Authorization)
		}
		if !uploads[0].ClientClock.Equal(clientClock) {
			t.Fatal("unexpected client clock", uploads[0].ClientClock)
		}
		if diff := cmp.Diff(body, uploads[0].Body); diff != "" {
			t.Fatal(diff)
		}

		if f.profile.Len() != min(before+1, f.profile.Capacity()) {
			t.Fatal("the shape was not recorded")
		}
		shapes := f.profile.Shapes()
		if diff := cmp.Diff(body.Shape(), shapes[len(shapes)-1]); diff != "" {
			t.Fatal(diff)
		}
		saved, err := sizeprofile.Load(f.kvs, sizeprofile.DefaultCapacity, nil)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(f.profile.Shapes(), saved.Shapes()); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("with an empty OTP", func(t *testing.T) {
		f := newFixture(t, &testingx.IngestionServer{})
		_, err := f.uploader.Upload(context.Background(), ingestion.NewBody(nil, "AG", nil), otp.Token{})
		if !errors.Is(err, ErrZeroToken) {
			t.Fatal("unexpected error", err)
		}
		if len(f.server.Uploads()) != 0 {
			t.Fatal("expected no uploads")
		}
	})

	t.Run("when the server rejects the OTP", func(t *testing.T) {
		f := newFixture(t, &testingx.IngestionServer{
			ValidateUpload: func(upload *testingx.IngestionUpload) error {
				return errors.New("unknown OTP")
			},
		})
		before := f.profile.Len()
		result, err := f.uploader.Upload(context.Background(), ingestion.NewBody(nil, "AG", nil), otp.New(rawOTP))
		var failure *httpapi.ErrHTTPRequestFailed
		if !errors.As(err, &failure) || failure.StatusCode != http.StatusUnauthorized {
			t.Fatal("unexpected error", err)
		}
		if result.StatusCode != http.StatusUnauthorized {
			t.Fatal("unexpected status code", result.StatusCode)
		}
		if f.profile.Len() != min(before+1, f.profile.Capacity()) {
			t.Fatal("the shape was not recorded")
		}
	})

	t.Run("when the network fails", func(t *testing.T) {
		expected := errors.New("mocked error")
		profile := sizeprofile.MustNew(1, []sizeprofile.Shape{{Keys: 1}})
		u := New(&Config{
			Builder: ingestion.NewBuilder(&ingestion.BuilderConfig{}),
			HTTPClient: &mocks.HTTPClient{
				MockDo: func(req *http.Request) (*http.Response, error) {
					return nil, expected
				},
			},
			Profile: profile,
		})
		result, err := u.Upload(context.Background(), ingestion.NewBody(nil, "AG", nil), otp.New(rawOTP))
		if !errors.Is(err, expected) {
			t.Fatal("unexpected error", err)
		}
		if result.StatusCode != 0 {
			t.Fatal("unexpected status code", result.StatusCode)
		}
		if diff := cmp.Diff([]sizeprofile.Shape{{Keys: 1}}, profile.Shapes()); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestUploaderUploadDummy(t *testing.T) {
	f := newFixture(t, &testingx.IngestionServer{})
	before := f.profile.Len()

	result, err := f.uploader.UploadDummy(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !result.Dummy || result.StatusCode != http.StatusNoContent {
		t.Fatal("unexpected result", result)
	}
	uploads := f.server.Uploads()
	if len(uploads) != 1 || !uploads[0].Dummy {
		t.Fatal("expected one dummy upload")
	}
	if !province.Valid(province.Default(), uploads[0].Body.Province) {
		t.Fatal("invalid province", uploads[0].Body.Province)
	}
	if f.profile.Len() != before {
		t.Fatal("dummy uploads must not be recorded")
	}
	if _, err := f.kvs.Get(sizeprofile.StateKey); !errors.Is(err, kvstore.ErrNoSuchKey) {
		t.Fatal("dummy uploads must not save the profile", err)
	}
}

func TestRealAndDummyUploadsShareTheWireFormat(t *testing.T) {
	f := newFixture(t, &testingx.IngestionServer{})
	if _, err := f.uploader.Upload(context.Background(), ingestion.NewBody(nil, "AG", nil), otp.New(rawOTP)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uploader.UploadDummy(context.Background()); err != nil {
		t.Fatal(err)
	}
	uploads := f.server.Uploads()
	names := func(header http.Header) (out []string) {
		for name := range header {
			out = append(out, name)
		}
		slices.Sort(out)
		return out
	}
	if diff := cmp.Diff(names(uploads[0].Header), names(uploads[1].Header)); diff != "" {
		t.Fatal(diff)
	}
	for _, name := range []string{"User-Agent", "Accept", "Content-Type", "Cache-Control", "Pragma"} {
		if uploads[0].Header.Get(name) != uploads[1].Header.Get(name) {
			t.Fatal("header differs", name)
		}
	}
}

func TestUploaderReadsTheClientClockOncePerUpload(t *testing.T) {
	f := newFixture(t, &testingx.IngestionServer{})
	clock := testingx.NewSteppingClock(clientClock, time.Minute)
	f.uploader.now = clock.Source()

	if _, err := f.uploader.Upload(context.Background(), ingestion.NewBody(nil, "AG", nil), otp.New(rawOTP)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uploader.UploadDummy(context.Background()); err != nil {
		t.Fatal(err)
	}

	if clock.Reads() != 2 {
		t.Fatal("expected one clock reading per upload, got", clock.Reads())
	}
	var got []time.Time
	for _, upload := range f.server.Uploads() {
		got = append(got, upload.ClientClock)
	}
	expect := []time.Time{clientClock, clientClock.Add(time.Minute)}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestUploaderTracksTheServerClock(t *testing.T) {
	serverTime := time.Now().Add(time.Hour)
	f := newFixture(t, &testingx.IngestionServer{
		Now: func() time.Time { return serverTime },
	})
	if _, err := f.uploader.UploadDummy(context.Background()); err != nil {
		t.Fatal(err)
	}
	offset, good := f.offset.Offset()
	if !good {
		t.Fatal("expected a server clock")
	}
	if offset > -50*time.Minute {
		t.Fatal("unexpected offset", offset)
	}
	var warned bool
	for _, message := range f.messages {
		if strings.Contains(message, "the device clock is off") {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected a clock warning")
	}
}

func TestUploaderNeverLogsTheOTP(t *testing.T) {
	f := newFixture(t, &testingx.IngestionServer{StatusCode: http.StatusBadRequest})
	_, _ = f.uploader.Upload(context.Background(), ingestion.NewBody(nil, "AG", nil), otp.New(rawOTP))
	digest := otp.Digest(otp.New(rawOTP))
	if len(f.messages) <= 0 {
		t.Fatal("expected log messages")
	}
	for _, message := range f.messages {
		if strings.Contains(message, rawOTP) || strings.Contains(message, digest) {
			t.Fatal("the OTP leaks in", message)
		}
	}
}
