package main

//
// Wiring the configuration into an uploader
//

import (
	"os"

	"github.com/immuni/upload-client/internal/clockx"
	"github.com/immuni/upload-client/internal/config"
	"github.com/immuni/upload-client/internal/ingestion"
	"github.com/immuni/upload-client/internal/kvstore"
	"github.com/immuni/upload-client/internal/model"
	"github.com/immuni/upload-client/internal/province"
	"github.com/immuni/upload-client/internal/runtimex"
	"github.com/immuni/upload-client/internal/scrubber"
	"github.com/immuni/upload-client/internal/sizeprofile"
	"github.com/immuni/upload-client/internal/uploader"
)

// session contains the state shared by the subcommands.
type session struct {
	builder   *ingestion.Builder
	catalog   province.Catalog
	config    *config.Config
	generator *ingestion.DummyGenerator
	logger    model.Logger
	profile   *sizeprofile.Profile
	uploader  *uploader.Uploader
}

// loadConfig loads the dotenv files and the configuration.
func loadConfig(options *Options) (*config.Config, error) {
	if len(options.EnvFiles) > 0 {
		if err := config.LoadEnv(options.EnvFiles...); err != nil {
			return nil, err
		}
	}
	if options.ConfigFile != "" {
		return config.ReadConfig(options.ConfigFile)
	}
	return config.ParseConfig([]byte("{}"))
}

// newSession creates a new session. An empty province catalog is a
// fatal configuration error, hence we panic.
func newSession(options *Options) (*session, error) {
	cfg, err := loadConfig(options)
	if err != nil {
		return nil, err
	}
	logger := scrubber.Wrap(newLogger(os.Stderr, options.Verbose))
	logger.Debugf("immuniupload: state directory: %s", cfg.StateDir)

	kvs, err := kvstore.NewFS(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	profile, err := sizeprofile.Load(kvs, cfg.Profile.Capacity, cfg.Profile.SeedShapes)
	if err != nil {
		return nil, err
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	generator, err := ingestion.NewDummyGenerator(&ingestion.DummyConfig{
		Catalog: catalog,
		Profile: profile,
	})
	runtimex.PanicOnError(err, "cannot create the dummy generator")

	builder := ingestion.NewBuilder(&ingestion.BuilderConfig{
		Generator: generator,
		Timeout:   cfg.Timeout(),
		UserAgent: cfg.UserAgent,
	})
	sess := &session{
		builder:   builder,
		catalog:   catalog,
		config:    cfg,
		generator: generator,
		logger:    logger,
		profile:   profile,
		uploader: uploader.New(&uploader.Config{
			BaseURL: cfg.BaseURL,
			Builder: builder,
			KVStore: kvs,
			Logger:  logger,
			Now:     clockx.System,
			Offset:  &clockx.Offset{},
			Profile: profile,
		}),
	}
	return sess, nil
}
