package dataset

import (
	"fmt"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// Conversions into gomlx tensors for consumption by a training loop, plus a
// small batching adapter satisfying the gomlx train.Dataset surface
// (Name / Yield / Restart).

// ToTensor converts the feature tensor into a gomlx tensor of shape
// (Objects, Times, Channels).
func (d *Dataset) ToTensor() (*tensors.Tensor, error) {
	if d.Objects == 0 || d.Times == 0 || d.Channels == 0 {
		empty := make([][][]float64, 0)
		return tensors.FromAnyValue(empty), nil
	}
	data := make([][][]float64, d.Objects)
	idx := 0
	for i := 0; i < d.Objects; i++ {
		data[i] = make([][]float64, d.Times)
		for j := 0; j < d.Times; j++ {
			data[i][j] = d.X[idx : idx+d.Channels]
			idx += d.Channels
		}
	}
	return tensors.FromAnyValue(data), nil
}

// LabelsTensor converts the label vector into a 1D gomlx tensor.
func (d *Dataset) LabelsTensor() (*tensors.Tensor, error) {
	return tensors.FromAnyValue(d.Y), nil
}

// Loader iterates a Dataset in fixed-size batches as gomlx tensors.
type Loader struct {
	// BatchSize for yielding batches.
	BatchSize int

	d    *Dataset
	next int
}

// NewLoader returns a Loader over d with the given batch size.
func NewLoader(d *Dataset, batchSize int) (*Loader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	return &Loader{BatchSize: batchSize, d: d}, nil
}

// Name returns the name of the dataset.
func (l *Loader) Name() string { return "LensDataset" }

// Yield returns the next batch of examples and labels. It returns io.EOF
// once the dataset is exhausted; Restart begins a new epoch.
func (l *Loader) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	if l.next >= l.d.Objects {
		return nil, nil, nil, io.EOF
	}
	end := l.next + l.BatchSize
	if end > l.d.Objects {
		end = l.d.Objects
	}

	batch := make([][][]float64, 0, end-l.next)
	lab := make([]float64, 0, end-l.next)
	for i := l.next; i < end; i++ {
		block, y, err := l.d.Row(i)
		if err != nil {
			return nil, nil, nil, err
		}
		rows := make([][]float64, l.d.Times)
		for t := 0; t < l.d.Times; t++ {
			rows[t] = block[t*l.d.Channels : (t+1)*l.d.Channels]
		}
		batch = append(batch, rows)
		lab = append(lab, y)
	}
	l.next = end

	inputs = []*tensors.Tensor{tensors.FromAnyValue(batch)}
	labels = []*tensors.Tensor{tensors.FromAnyValue(lab)}
	return nil, inputs, labels, nil
}

// Restart resets the loader for a new epoch.
func (l *Loader) Restart() error {
	l.next = 0
	return nil
}
