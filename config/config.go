// Package config defines the on-disk description of an overlap run.
package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/steric/atom"
	"go.viam.com/steric/bvh"
	"go.viam.com/steric/collision"
	"go.viam.com/steric/logging"
	"go.viam.com/steric/pdb"
	"go.viam.com/steric/report"
)

// Config describes an overlap run between a reference and a query structure.
type Config struct {
	Reference string `json:"reference" jsonschema:"description=PDB file indexed in the tree"`
	Query     string `json:"query" jsonschema:"description=PDB file whose atoms probe the tree"`

	DefaultRadius float64            `json:"default_radius,omitempty" jsonschema:"minimum=0"`
	VanDerWaals   bool               `json:"van_der_waals,omitempty"`
	Radii         map[string]float64 `json:"radii,omitempty"`
	PDBFormat     string             `json:"pdb_format,omitempty" jsonschema:"enum=columns,enum=fields"`
	Strict        bool               `json:"strict,omitempty"`

	Split   string `json:"split,omitempty" jsonschema:"enum=midpoint,enum=spatial-median"`
	Storage string `json:"storage,omitempty" jsonschema:"enum=all-nodes,enum=leaves-only"`
	Workers int    `json:"workers,omitempty" jsonschema:"minimum=0"`

	Format   string `json:"format,omitempty" jsonschema:"enum=text,enum=table,enum=json"`
	Verify   bool   `json:"verify,omitempty"`
	LogLevel string `json:"log_level,omitempty"`
}

// Validate returns every problem with the config at once.
func (c *Config) Validate(path string) error {
	var err error
	if c.Reference == "" {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError(path, "reference"))
	}
	if c.Query == "" {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError(path, "query"))
	}
	if c.DefaultRadius < 0 {
		err = multierr.Append(err, utils.NewConfigValidationError(path,
			errors.Errorf("default_radius must not be negative, got %v", c.DefaultRadius)))
	}
	for element, radius := range c.Radii {
		if radius <= 0 {
			err = multierr.Append(err, utils.NewConfigValidationError(path,
				errors.Errorf("radius for %q must be positive, got %v", element, radius)))
		}
	}
	if c.Workers < 0 {
		err = multierr.Append(err, utils.NewConfigValidationError(path,
			errors.Errorf("workers must not be negative, got %d", c.Workers)))
	}
	if _, perr := pdb.ParseFormat(c.PDBFormat); perr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError(path, perr))
	}
	if _, perr := bvh.ParseSplitStrategy(c.Split); perr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError(path, perr))
	}
	if _, perr := bvh.ParseStorage(c.Storage); perr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError(path, perr))
	}
	if _, perr := report.ParseFormat(c.Format); perr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError(path, perr))
	}
	if c.LogLevel != "" {
		if _, perr := logging.LevelFromString(c.LogLevel); perr != nil {
			err = multierr.Append(err, utils.NewConfigValidationError(path, perr))
		}
	}
	return err
}

// TreeOptions returns the tree options the config selects. The config must be valid.
func (c *Config) TreeOptions() bvh.Options {
	split, _ := bvh.ParseSplitStrategy(c.Split)
	storage, _ := bvh.ParseStorage(c.Storage)
	return bvh.Options{Split: split, Storage: storage}
}

// ReadOptions returns the PDB reader options the config selects.
func (c *Config) ReadOptions(logger logging.Logger) []pdb.Option {
	format, _ := pdb.ParseFormat(c.PDBFormat)
	opts := []pdb.Option{pdb.WithFormat(format), pdb.WithStrict(c.Strict)}
	if c.DefaultRadius > 0 {
		opts = append(opts, pdb.WithDefaultRadius(c.DefaultRadius))
	}
	radii := map[string]float64{}
	if c.VanDerWaals {
		for element, radius := range pdb.VanDerWaalsRadii {
			radii[element] = radius
		}
	}
	for element, radius := range c.Radii {
		radii[element] = radius
	}
	if len(radii) > 0 {
		opts = append(opts, pdb.WithRadii(radii))
	}
	if logger != nil {
		opts = append(opts, pdb.WithLogger(logger))
	}
	return opts
}

// DetectOptions returns the collision options the config selects.
func (c *Config) DetectOptions(logger logging.Logger) []collision.Option {
	opts := []collision.Option{
		collision.WithWorkers(c.Workers),
		collision.WithBVHOptions(bvh.WithOptions(c.TreeOptions())),
	}
	if logger != nil {
		opts = append(opts, collision.WithLogger(logger))
	}
	return opts
}

// OutputFormat returns the report format the config selects.
func (c *Config) OutputFormat() report.Format {
	f, _ := report.ParseFormat(c.Format)
	return f
}

// Radius is the effective default radius.
func (c *Config) Radius() float64 {
	if c.DefaultRadius > 0 {
		return c.DefaultRadius
	}
	return atom.DefaultRadius
}

// Schema returns the JSON schema of Config.
func Schema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	return json.MarshalIndent(r.Reflect(&Config{}), "", "  ")
}
