package main

import (
	"flag"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/deepqso/dataloader/dataset"
)

var (
	lensPath     = flag.String("lens", "lens_observations.csv", "Lens source table (relative paths resolve under DEEPQSODIR)")
	nonlensPath  = flag.String("nonlens", "nonlens_observations.csv", "Non-lens source table")
	featuresPath = flag.String("features", "features.npy", "Output feature tensor")
	labelsPath   = flag.String("labels", "labels.npy", "Output label vector")
	cutoff       = flag.Float64("cutoff", 0, "Exclusive MJD upper bound on admitted observations (0 = unbounded)")
	onehot       = flag.Bool("onehot", false, "Encode filters as one-hot indicator channels")
	lightcurve   = flag.Bool("lightcurve-only", false, "Restrict attributes to apMag, apMagErr, d_time")
	seed         = flag.Int64("seed", 0, "Shuffle seed (0 = default)")
	debug        = flag.Bool("debug", false, "Verbose shape diagnostics")
)

type environment struct {
	// DataDir is the base directory shared with the catalog extraction
	// tooling; relative table and output paths resolve under <DataDir>/data.
	DataDir string `env:"DEEPQSODIR"`
}

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	if !*debug {
		logger = logger.WithOptions(zap.IncreaseLevel(zap.InfoLevel))
	}

	var envCfg environment
	if err := env.Parse(&envCfg); err != nil {
		logger.Fatal("failed to parse environment", zap.Error(err))
	}

	cfg := dataset.Config{
		LightcurveOnly:    *lightcurve,
		OnehotFilters:     *onehot,
		ObservationCutoff: *cutoff,
		Seed:              *seed,
		Debug:             *debug,
	}

	p := dataset.NewPipeline(
		resolve(envCfg.DataDir, *lensPath),
		resolve(envCfg.DataDir, *nonlensPath),
		cfg, logger)

	if _, err := p.Run(resolve(envCfg.DataDir, *featuresPath), resolve(envCfg.DataDir, *labelsPath)); err != nil {
		logger.Fatal("pipeline failed", zap.Error(err))
	}
}

// resolve anchors a relative path under the DEEPQSODIR data directory when
// one is configured.
func resolve(dataDir, path string) string {
	if dataDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dataDir, "data", path)
}
