// Package cmd implements the heartapi command line.
package cmd

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"heartapi/config"
	"heartapi/db"
	qhttp "heartapi/http"
	"heartapi/ml"
	"heartapi/monitoring"
)

// EnvConfig names the config file when --config is not given.
const EnvConfig = "HEART_CONFIG"

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "config.yaml",
			Sources: cli.EnvVars(EnvConfig),
			Usage:   "path to the YAML configuration file",
		},
		&cli.StringFlag{
			Name:  "model-dir",
			Usage: "directory holding the model artifacts (overrides model.dir)",
		},
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("model-dir") {
		cfg.Model.Dir = cmd.String("model-dir")
	}
	if cmd.IsSet("port") {
		port, err := strconv.Atoi(cmd.String("port"))
		if err != nil {
			return nil, errors.Wrap(err, "invalid --port")
		}
		cfg.HTTP.Port = port
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPredictor loads and binds the model artifacts described by cfg.
func LoadPredictor(cfg config.ModelConfig) (*ml.Predictor, error) {
	artifacts, err := ml.LoadArtifacts(cfg.ArtifactPaths())
	if err != nil {
		return nil, err
	}
	return ml.NewPredictor(artifacts, ml.WithCacheSize(cfg.CacheSize))
}

// app is the assembled service.
type app struct {
	server    *qhttp.Server
	predictor *ml.Predictor
	audit     *db.AuditLog
	watcher   *monitoring.ArtifactWatcher
}

// newApp wires the service. A model that fails to load leaves the service
// running without one unless cfg.Model.Required is set.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}
	paths := cfg.Model.ArtifactPaths()

	predictor, err := LoadPredictor(cfg.Model)
	if err != nil {
		if cfg.Model.Required {
			return nil, errors.Wrap(err, "loading model artifacts")
		}
		logger.Error("failed to load model artifacts; serving without a model",
			zap.Strings("paths", paths.All()),
			zap.Error(err),
		)
	} else {
		info, _ := predictor.Info()
		logger.Info("model loaded",
			zap.String("model_type", info.ModelType),
			zap.Int("features", len(info.Features)),
			zap.String("dir", cfg.Model.Dir),
			zap.Int("cache_size", cfg.Model.CacheSize),
		)
	}
	a.predictor = predictor

	opts := []qhttp.HandlerOption{
		qhttp.WithLogger(logger),
		qhttp.WithMetrics(monitoring.NewMetricsCollector()),
	}

	if cfg.Audit.Path != "" {
		audit, err := db.Open(cfg.Audit.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening audit database %s", cfg.Audit.Path)
		}
		a.audit = audit
		opts = append(opts, qhttp.WithAudit(audit))
		logger.Info("prediction audit log enabled", zap.String("path", cfg.Audit.Path))
	}

	if cfg.Model.Watch && predictor.Loaded() {
		watcher, err := monitoring.NewArtifactWatcher(paths.All(), logger)
		if err != nil {
			logger.Warn("artifact watcher disabled", zap.Error(err))
		} else {
			watcher.Start(ctx)
			a.watcher = watcher
		}
	}

	handlers := qhttp.NewHandlers(predictor, opts...)
	a.server = qhttp.NewServer(qhttp.ServerConfigFrom(cfg.HTTP), handlers)
	return a, nil
}

func (a *app) close(logger *zap.Logger) {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			logger.Warn("failed to close artifact watcher", zap.Error(err))
		}
	}
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			logger.Warn("failed to close audit database", zap.Error(err))
		}
	}
}
