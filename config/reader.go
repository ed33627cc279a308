package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/steric/logging"
)

// Read reads a config from the given file, expanding environment variables first. Relative
// structure paths are resolved against the directory holding the config.
func Read(ctx context.Context, filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config file %q", filePath)
	}
	cfg, err := FromReader(ctx, filePath, bytes.NewReader(buf), logger)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(filePath)
	cfg.Reference = resolvePath(dir, cfg.Reference)
	cfg.Query = resolvePath(dir, cfg.Query)
	return cfg, nil
}

// FromReader decodes and validates a config. originalPath is only used in error messages.
func FromReader(ctx context.Context, originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	_, span := trace.StartSpan(ctx, "config::FromReader")
	defer span.End()

	var cfg Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", originalPath)
	}
	if err := cfg.Validate(originalPath); err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debugw("read config", "path", originalPath, "reference", cfg.Reference, "query", cfg.Query)
	}
	return &cfg, nil
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
