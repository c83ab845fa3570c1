package dataset

import (
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/deepqso/dataloader/tables"
)

// Sentinel marks an (object, time, channel) slot with no observation. It is
// deliberately far outside any physical attribute range; the consuming model
// must treat it as "no reading", never as a value.
const Sentinel = -9999.0

// Filters is the fixed photometric filter alphabet, in channel order.
var Filters = []string{"u", "g", "r", "i", "z"}

// NumFilters is the size of the filter alphabet.
const NumFilters = 5

// DefaultAttributes is the full per-observation attribute vocabulary, in
// channel order. The last three (e, phi, d_time) are derived columns.
var DefaultAttributes = []string{
	"psf_fwhm", "x", "y", "apFlux", "apFluxErr",
	"apMag", "apMagErr", "trace", "e1", "e2", "e", "phi", "d_time",
}

// LightcurveAttributes is the minimal photometry-only subset.
var LightcurveAttributes = []string{"apMag", "apMagErr", "d_time"}

// Config carries the constructor-level options of the pipeline.
type Config struct {
	// LightcurveOnly restricts the attribute set to LightcurveAttributes.
	LightcurveOnly bool

	// OnehotFilters selects the one-hot tensor layout: channels are the
	// attributes followed by five filter indicator channels, instead of one
	// channel per (attribute, filter) pair.
	OnehotFilters bool

	// ObservationCutoff is the exclusive upper bound on admitted timestamps.
	// Zero means unbounded.
	ObservationCutoff float64

	// Seed drives the shuffle permutation. Zero means DefaultSeed.
	Seed int64

	// Debug enables verbose shape and row-count diagnostics. It never
	// changes control flow.
	Debug bool
}

// DefaultSeed is the shuffle seed used when Config.Seed is zero.
const DefaultSeed = 123

// Cutoff returns the effective observation cutoff.
func (c Config) Cutoff() float64 {
	if c.ObservationCutoff == 0 {
		return math.Inf(1)
	}
	return c.ObservationCutoff
}

// ShuffleSeed returns the effective shuffle seed.
func (c Config) ShuffleSeed() int64 {
	if c.Seed == 0 {
		return DefaultSeed
	}
	return c.Seed
}

// ClassData is the dense feature tensor and label vector of a single class.
// X is a flat row-major (Objects, Times, Channels) buffer, the same flat
// buffer plus shape representation used throughout this package.
type ClassData struct {
	X        []float64
	Objects  int
	Times    int
	Channels int
	Y        []float64
}

// Builder turns balanced, feature-augmented tables into dense class tensors.
// Balance must run before BuildClass so the population and slot counts are
// known.
type Builder struct {
	cfg        Config
	attributes []string
	log        *zap.Logger

	numPositives int
	numTimes     int
}

// NewBuilder returns a Builder for the given options. log may be nil.
func NewBuilder(cfg Config, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	attrs := DefaultAttributes
	if cfg.LightcurveOnly {
		attrs = LightcurveAttributes
	}
	return &Builder{cfg: cfg, attributes: attrs, log: log}
}

// Attributes returns the active attribute vocabulary in channel order.
func (b *Builder) Attributes() []string { return b.attributes }

// NumTimes returns the shared time-slot count, valid after Balance.
func (b *Builder) NumTimes() int { return b.numTimes }

// NumPositives returns the per-class object count, valid after Balance.
func (b *Builder) NumPositives() int { return b.numPositives }

// channels returns the channel count of the selected layout.
func (b *Builder) channels() int {
	if b.cfg.OnehotFilters {
		return len(b.attributes) + NumFilters
	}
	return len(b.attributes) * NumFilters
}

// Balance equalizes the two tables (see tables.Balance) and records the
// resulting slot and population counts for tensor construction.
func (b *Builder) Balance(lens, nonlens *tables.Table) error {
	numTimes, numPositives, err := tables.Balance(lens, nonlens, b.cfg.Cutoff())
	if err != nil {
		return fmt.Errorf("balancing failed: %w", err)
	}
	b.numTimes = numTimes
	b.numPositives = numPositives
	if b.cfg.Debug {
		b.log.Debug("balanced source tables",
			zap.Int("num_times", numTimes),
			zap.Int("num_positives", numPositives),
			zap.Int("rows_per_class", lens.NumRows()))
	}
	return nil
}

// Derive augments both tables with the derived feature columns.
func (b *Builder) Derive(lens, nonlens *tables.Table) error {
	for _, t := range []*tables.Table{lens, nonlens} {
		if err := tables.DeriveFeatures(t, b.numTimes); err != nil {
			return fmt.Errorf("feature derivation failed: %w", err)
		}
	}
	if b.cfg.Debug {
		b.log.Debug("derived feature columns",
			zap.Strings("attributes", b.attributes),
			zap.Int("rows_per_class", lens.NumRows()))
	}
	return nil
}

// BuildClass constructs the dense (objects, times, channels) tensor for one
// class, with the given truth value repeated across the label vector.
//
// Instead of pivoting through intermediate wide tables, the target array is
// allocated up front filled with Sentinel, and each source row's destination
// indices are computed analytically: object index from the ascending rank of
// its identifier, time from time_index, channel from the (attribute, filter)
// position of the layout. Slots no row writes to keep the sentinel.
func (b *Builder) BuildClass(src *tables.Table, truth float64) (*ClassData, error) {
	n, T, C := b.numPositives, b.numTimes, b.channels()
	if n == 0 || T == 0 {
		return nil, fmt.Errorf("builder not balanced: objects=%d times=%d", n, T)
	}
	if got, want := src.NumRows(), n*T; got != want {
		return nil, fmt.Errorf("row count %d does not equal objects x slots = %d x %d = %d", got, n, T, want)
	}
	if src.TimeIndex == nil {
		return nil, fmt.Errorf("table has no time_index column; derive features first")
	}

	objRank, err := objectRanks(src, n)
	if err != nil {
		return nil, err
	}
	filterRank := make(map[string]int, NumFilters)
	for i, f := range Filters {
		filterRank[f] = i
	}
	attrCols := make([][]float64, len(b.attributes))
	for i, name := range b.attributes {
		col, err := src.Attr(name)
		if err != nil {
			return nil, err
		}
		attrCols[i] = col
	}

	X := make([]float64, n*T*C)
	for i := range X {
		X[i] = Sentinel
	}

	for row := 0; row < src.NumRows(); row++ {
		o := objRank[src.ObjectID[row]]
		t := src.TimeIndex[row]
		if t < 0 || t >= T {
			return nil, fmt.Errorf("row %d time index %d outside [0,%d)", row, t, T)
		}
		f, ok := filterRank[src.Filter[row]]
		if !ok {
			return nil, fmt.Errorf("row %d has unknown filter %q", row, src.Filter[row])
		}
		base := (o*T + t) * C
		if b.cfg.OnehotFilters {
			for ai, col := range attrCols {
				X[base+ai] = col[row]
			}
			for j := 0; j < NumFilters; j++ {
				v := 0.0
				if j == f {
					v = 1.0
				}
				X[base+len(b.attributes)+j] = v
			}
		} else {
			for ai, col := range attrCols {
				X[base+ai*NumFilters+f] = col[row]
			}
		}
	}

	Y := make([]float64, n)
	for i := range Y {
		Y[i] = truth
	}

	if b.cfg.Debug {
		var missing int
		for _, v := range X {
			if v == Sentinel {
				missing++
			}
		}
		b.log.Debug("built class tensor",
			zap.Float64("truth", truth),
			zap.Int("objects", n), zap.Int("times", T), zap.Int("channels", C),
			zap.Int("sentinel_slots", missing))
	}

	return &ClassData{X: X, Objects: n, Times: T, Channels: C, Y: Y}, nil
}

// objectRanks maps each distinct object identifier to its ascending rank,
// matching the sorted object axis of the output tensor.
func objectRanks(src *tables.Table, n int) (map[int64]int, error) {
	ids := src.SortedObjectIDs()
	if len(ids) != n {
		return nil, fmt.Errorf("table has %d distinct objects, want %d", len(ids), n)
	}
	rank := make(map[int64]int, n)
	for i, id := range ids {
		rank[id] = i
	}
	return rank, nil
}

// FilteredAttributes returns the canonical flat channel names of the default
// layout: for each attribute, one "filter_attribute" column per filter, in
// the fixed (attribute, filter) iteration order.
func (b *Builder) FilteredAttributes() []string {
	out := make([]string, 0, len(b.attributes)*NumFilters)
	for _, a := range b.attributes {
		for _, f := range Filters {
			out = append(out, f+"_"+a)
		}
	}
	return out
}

// OnehotAttributes returns the channel names of the one-hot layout: the
// attributes followed by the filter indicators.
func (b *Builder) OnehotAttributes() []string {
	out := make([]string, 0, len(b.attributes)+NumFilters)
	out = append(out, b.attributes...)
	out = append(out, Filters...)
	return out
}

// TimedFilteredAttributes returns the canonical "time-filter_attribute"
// column ordering of the fully widened per-object row: channels outermost,
// time slots innermost, matching the (channel, time) layout that transposes
// into the final (time, channel) axes.
func (b *Builder) TimedFilteredAttributes() []string {
	filtered := b.FilteredAttributes()
	out := make([]string, 0, len(filtered)*b.numTimes)
	for _, fa := range filtered {
		for t := 0; t < b.numTimes; t++ {
			out = append(out, strconv.Itoa(t)+"-"+fa)
		}
	}
	return out
}
