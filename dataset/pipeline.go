package dataset

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/deepqso/dataloader/tables"
)

// Pipeline drives the full transform: load the two source tables, balance
// them, derive features, build the per-class tensors, assemble and shuffle,
// then persist. It is a synchronous, single-threaded batch job; each Pipeline
// owns its tables and nothing is shared between runs.
type Pipeline struct {
	LensPath    string
	NonlensPath string

	cfg Config
	log *zap.Logger
}

// NewPipeline returns a Pipeline reading the lens and non-lens source tables
// from the given paths. log may be nil.
func NewPipeline(lensPath, nonlensPath string, cfg Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{LensPath: lensPath, NonlensPath: nonlensPath, cfg: cfg, log: log}
}

// Run executes every stage in sequence and writes the feature tensor and
// label vector to the two output paths. The assembled dataset is returned
// for callers that want the arrays in memory as well. Any stage error aborts
// the run before output is written.
//
// Each stage lives in its own function returning only what the next stage
// needs, so the long and wide intermediates (the dominant memory consumers)
// become unreachable as soon as their stage completes.
func (p *Pipeline) Run(featuresPath, labelsPath string) (*Dataset, error) {
	start := time.Now()

	b := NewBuilder(p.cfg, p.log)
	lensData, nonlensData, err := p.buildClasses(b)
	if err != nil {
		return nil, err
	}

	d, err := p.assemble(lensData, nonlensData)
	if err != nil {
		return nil, err
	}

	if err := d.Save(featuresPath, labelsPath); err != nil {
		return nil, err
	}

	p.log.Info("dataset built",
		zap.Int("objects", d.Objects),
		zap.Int("times", d.Times),
		zap.Int("channels", d.Channels),
		zap.String("features", featuresPath),
		zap.String("labels", labelsPath),
		zap.Duration("elapsed", time.Since(start)))

	return d, nil
}

// buildClasses loads, balances and derives the two tables, then reduces each
// to its class tensor. The tables go out of scope on return.
func (p *Pipeline) buildClasses(b *Builder) (lensData, nonlensData *ClassData, err error) {
	lens, err := tables.ReadCSV(p.LensPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load lens table: %w", err)
	}
	nonlens, err := tables.ReadCSV(p.NonlensPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load non-lens table: %w", err)
	}
	p.log.Info("loaded source tables",
		zap.Int("lens_rows", lens.NumRows()),
		zap.Int("nonlens_rows", nonlens.NumRows()))

	if err := b.Balance(lens, nonlens); err != nil {
		return nil, nil, err
	}
	if err := b.Derive(lens, nonlens); err != nil {
		return nil, nil, err
	}

	lensData, err = b.BuildClass(lens, 1.0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build lens tensor: %w", err)
	}
	nonlensData, err = b.BuildClass(nonlens, 0.0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build non-lens tensor: %w", err)
	}
	return lensData, nonlensData, nil
}

// assemble concatenates the class tensors and applies the seeded shuffle.
func (p *Pipeline) assemble(lensData, nonlensData *ClassData) (*Dataset, error) {
	d, err := Combine(lensData, nonlensData)
	if err != nil {
		return nil, err
	}
	d.Shuffle(p.cfg.ShuffleSeed())
	return d, nil
}
