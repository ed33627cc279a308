package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/steric/bvh"
	"go.viam.com/steric/collision"
	"go.viam.com/steric/config"
	"go.viam.com/steric/logging"
	"go.viam.com/steric/pdb"
	"go.viam.com/steric/report"
)

// OverlapAction reads two structures, probes the first with every atom of the second and
// prints the result.
func OverlapAction(c *cli.Context) error {
	logger, closeLogger := newLogger(c)
	defer closeLogger()
	cfg, err := loadConfig(c, logger, 2)
	if err != nil {
		return err
	}
	if err := setLogLevel(c, logger, cfg); err != nil {
		return err
	}

	reference, err := pdb.ReadFile(c.Context, cfg.Reference, cfg.ReadOptions(logger.Sublogger("pdb"))...)
	if err != nil {
		return err
	}
	query, err := pdb.ReadFile(c.Context, cfg.Query, cfg.ReadOptions(logger.Sublogger("pdb"))...)
	if err != nil {
		return err
	}

	res, err := collision.Detect(c.Context, reference, query, cfg.DetectOptions(logger.Sublogger("collision"))...)
	if err != nil {
		return err
	}
	if cfg.Verify {
		if err := verify(res, collision.BruteForce(reference, query), cfg.TreeOptions()); err != nil {
			return err
		}
		logger.Infow("verified against exhaustive scan", "run_id", res.RunID)
	}
	return report.Write(c.App.Writer, res, cfg.OutputFormat())
}

// StatsAction prints the shape of the tree built over one structure.
func StatsAction(c *cli.Context) error {
	logger, closeLogger := newLogger(c)
	defer closeLogger()
	cfg, err := loadConfig(c, logger, 1)
	if err != nil {
		return err
	}
	if err := setLogLevel(c, logger, cfg); err != nil {
		return err
	}

	reference, err := pdb.ReadFile(c.Context, cfg.Reference, cfg.ReadOptions(logger.Sublogger("pdb"))...)
	if err != nil {
		return err
	}
	opts := cfg.TreeOptions()
	tree := bvh.Build(reference.Atoms, bvh.WithOptions(opts))
	report.WriteStats(c.App.Writer, reference.Name, opts, tree.Stats())
	return nil
}

// SchemaAction prints the JSON schema of the run configuration.
func SchemaAction(c *cli.Context) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(schema))
	return err
}

// newLogger logs to the app's error writer and, when --log-file is given, to a rotated file. The
// returned function closes the file.
func newLogger(c *cli.Context) (logging.Logger, func()) {
	logger := logging.NewBlankLogger("steric")
	logger.SetLevel(logging.INFO)
	if c.Bool(generalFlagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))

	path := c.String(generalFlagLogFile)
	if path == "" {
		return logger, func() {}
	}
	fileAppender := logging.NewFileAppender(path, logFileMaxSizeMB)
	logger.AddAppender(fileAppender)
	return logger, func() {
		utils.UncheckedError(logger.Sync())
		utils.UncheckedError(fileAppender.Close())
	}
}

func setLogLevel(c *cli.Context, logger logging.Logger, cfg *config.Config) error {
	if c.Bool(generalFlagDebug) || cfg.LogLevel == "" {
		return nil
	}
	level, err := logging.LevelFromString(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	return nil
}

// loadConfig reads the config file when one is given, then applies positional structure paths
// and flags on top of it. Only flags set on the command line override file values.
func loadConfig(c *cli.Context, logger logging.Logger, numPaths int) (*config.Config, error) {
	cfg := &config.Config{}
	if path := c.String(generalFlagConfig); path != "" {
		var err error
		if cfg, err = config.Read(c.Context, path, logger); err != nil {
			return nil, err
		}
	}

	args := c.Args().Slice()
	if len(args) > numPaths {
		return nil, errors.Errorf("expected at most %d structure paths, got %d", numPaths, len(args))
	}
	if len(args) > 0 {
		cfg.Reference = args[0]
	}
	if len(args) > 1 {
		cfg.Query = args[1]
	}
	if numPaths == 1 && cfg.Query == "" {
		// stats only reads the reference
		cfg.Query = cfg.Reference
	}

	if c.IsSet(flagRadius) {
		cfg.DefaultRadius = c.Float64(flagRadius)
	}
	if c.IsSet(flagVdW) {
		cfg.VanDerWaals = c.Bool(flagVdW)
	}
	if c.IsSet(flagPDBFormat) {
		cfg.PDBFormat = c.String(flagPDBFormat)
	}
	if c.IsSet(flagStrict) {
		cfg.Strict = c.Bool(flagStrict)
	}
	if c.IsSet(flagSplit) {
		cfg.Split = c.String(flagSplit)
	}
	if c.IsSet(flagStorage) {
		cfg.Storage = c.String(flagStorage)
	}
	if c.IsSet(flagWorkers) {
		cfg.Workers = c.Int(flagWorkers)
	}
	if c.IsSet(flagVerify) {
		cfg.Verify = c.Bool(flagVerify)
	}
	if c.IsSet(flagFormat) {
		cfg.Format = c.String(flagFormat)
	}

	if err := cfg.Validate("command line"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// verify compares a tree result with an exhaustive scan. Under the default tree options the
// matched reference ids must agree one for one. Other options may pick a different colliding
// reference atom, so only the set of colliding query atoms is compared.
func verify(res, exhaustive *collision.Result, opts bvh.Options) error {
	if opts == (bvh.Options{}) {
		if !collision.SameMatches(res, exhaustive) {
			return errors.Errorf("tree matches %v differ from exhaustive matches %v", res.Matches, exhaustive.Matches)
		}
		return nil
	}
	queryIDs := func(r *collision.Result) []int {
		return lo.Map(r.Pairs, func(p collision.Pair, _ int) int { return p.QueryID })
	}
	got, want := queryIDs(res), queryIDs(exhaustive)
	if missing, extra := lo.Difference(want, got); len(missing) > 0 || len(extra) > 0 {
		return errors.Errorf("colliding query atoms differ from exhaustive scan: missing %v, unexpected %v", missing, extra)
	}
	return nil
}
