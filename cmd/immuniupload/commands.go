package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/immuni/upload-client/internal/clockx"
	"github.com/immuni/upload-client/internal/httpapi"
	"github.com/immuni/upload-client/internal/ingestion"
	"github.com/immuni/upload-client/internal/model"
	"github.com/immuni/upload-client/internal/otp"
	"github.com/immuni/upload-client/internal/province"
	"github.com/immuni/upload-client/internal/scrubber"
	"github.com/immuni/upload-client/internal/sizeprofile"
	"github.com/pkg/errors"
)

// dummySamples is the number of dummy bodies used to estimate sizes.
const dummySamples = 200

// keysFile is the content of the file passed to upload --keys.
type keysFile struct {
	Teks                       []model.TemporaryExposureKey     `json:"teks"`
	ExposureDetectionSummaries []model.ExposureDetectionSummary `json:"exposure_detection_summaries"`
}

// readKeysFile reads and validates the keys file.
func readKeysFile(path string) (*keysFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf keysFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, errors.Wrap(err, "parsing keys file")
	}
	if len(kf.Teks) > model.TEKMaxCount {
		return nil, errors.Errorf("too many keys: %d > %d", len(kf.Teks), model.TEKMaxCount)
	}
	for _, key := range kf.Teks {
		if len(key.KeyData) != model.TEKKeyLength {
			return nil, errors.Errorf("invalid key_data length: %d", len(key.KeyData))
		}
	}
	return &kf, nil
}

// uploadMain implements the upload subcommand.
func uploadMain(ctx context.Context, w io.Writer, options *Options) error {
	token, err := otp.Parse(options.OTP)
	if err != nil {
		return errors.Wrap(err, "invalid --otp")
	}
	kf, err := readKeysFile(options.KeysFile)
	if err != nil {
		return err
	}
	sess, err := newSession(options)
	if err != nil {
		return err
	}
	if !province.Valid(sess.catalog, options.Province) {
		return errors.Errorf("invalid --province: %q", options.Province)
	}
	body := ingestion.NewBody(kf.Teks, options.Province, kf.ExposureDetectionSummaries)
	if options.DryRun {
		return printDescriptor(ctx, w, sess, sess.builder.Build(body, token, clockx.System, false))
	}
	result, err := sess.uploader.Upload(ctx, body, token)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "upload %s: status %d\n", result.AttemptID, result.StatusCode)
	return nil
}

// dummyMain implements the dummy subcommand.
func dummyMain(ctx context.Context, w io.Writer, options *Options) error {
	sess, err := newSession(options)
	if err != nil {
		return err
	}
	for i := 0; i < options.Count; i++ {
		if options.DryRun {
			token, err := otp.Generate(nil)
			if err != nil {
				return err
			}
			if err := printDescriptor(ctx, w, sess, sess.builder.BuildDummy(token, clockx.System)); err != nil {
				return err
			}
			continue
		}
		result, err := sess.uploader.UploadDummy(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "dummy %s: status %d\n", result.AttemptID, result.StatusCode)
	}
	return nil
}

// digestMain implements the digest subcommand.
func digestMain(w io.Writer, options *Options) error {
	token := otp.New(options.OTP)
	if token.IsZero() {
		return errors.New("empty --otp")
	}
	fmt.Fprintln(w, otp.BearerAuthorization(token))
	return nil
}

// provincesMain implements the provinces subcommand.
func provincesMain(w io.Writer, options *Options) error {
	cfg, err := loadConfig(options)
	if err != nil {
		return err
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return err
	}
	for _, code := range catalog.Codes() {
		fmt.Fprintln(w, code)
	}
	return nil
}

// profileMain implements the profile subcommand.
func profileMain(w io.Writer, options *Options) error {
	sess, err := newSession(options)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "shapes: %d/%d\n", sess.profile.Len(), sess.profile.Capacity())
	if summary, err := sess.profile.Summary(); err == nil {
		printSummary(w, "genuine", summary)
	} else {
		fmt.Fprintln(w, "genuine: no recorded sizes")
	}
	var sizes []int
	for i := 0; i < dummySamples; i++ {
		sizes = append(sizes, len(sess.generator.Generate().Marshal()))
	}
	summary, err := sizeprofile.Summarize(sizes)
	if err != nil {
		return err
	}
	printSummary(w, "dummy", summary)
	return nil
}

// printSummary prints a size summary.
func printSummary(w io.Writer, name string, summary *sizeprofile.Summary) {
	fmt.Fprintf(w, "%s: count=%d mean=%.1f stddev=%.1f median=%.1f min=%.0f max=%.0f\n",
		name, summary.Count, summary.Mean, summary.StdDev, summary.Median, summary.Min, summary.Max)
}

// printDescriptor prints the request described by desc without sending it.
func printDescriptor(ctx context.Context, w io.Writer, sess *session, desc *httpapi.Descriptor) error {
	endpoint := &httpapi.Endpoint{BaseURL: sess.config.BaseURL, Logger: sess.logger}
	request, err := httpapi.NewRequest(ctx, endpoint, desc)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s\n", request.Method, request.URL.String())
	header := desc.AllHeaders()
	for _, name := range desc.HeaderNames() {
		fmt.Fprintln(w, scrubber.Scrub(fmt.Sprintf("%s: %s", name, header.Get(name))))
	}
	fmt.Fprintf(w, "\n%s\n", scrubber.Scrub(string(desc.RequestBody)))
	return nil
}
