package dataset

import (
	"fmt"
	"math/rand"
)

// Dataset is the assembled training set: a flat row-major
// (Objects, Times, Channels) feature tensor with its parallel label vector.
// Y[i] is always the label of the object at X row i, shuffled or not.
type Dataset struct {
	X        []float64
	Objects  int
	Times    int
	Channels int
	Y        []float64
}

// Combine concatenates the two class tensors along the object axis, lens
// first, and their label vectors correspondingly. The time and channel axes
// must agree exactly; the balancer guarantees equal per-class object counts
// and a violation here means an upstream bug.
func Combine(lens, nonlens *ClassData) (*Dataset, error) {
	if lens.Times != nonlens.Times || lens.Channels != nonlens.Channels {
		return nil, fmt.Errorf("class tensor shapes disagree: lens (%d,%d,%d) nonlens (%d,%d,%d)",
			lens.Objects, lens.Times, lens.Channels,
			nonlens.Objects, nonlens.Times, nonlens.Channels)
	}
	if lens.Objects != nonlens.Objects {
		return nil, fmt.Errorf("class object counts disagree: lens=%d nonlens=%d", lens.Objects, nonlens.Objects)
	}

	d := &Dataset{
		Objects:  lens.Objects + nonlens.Objects,
		Times:    lens.Times,
		Channels: lens.Channels,
	}
	d.X = make([]float64, 0, len(lens.X)+len(nonlens.X))
	d.X = append(d.X, lens.X...)
	d.X = append(d.X, nonlens.X...)
	d.Y = make([]float64, 0, len(lens.Y)+len(nonlens.Y))
	d.Y = append(d.Y, lens.Y...)
	d.Y = append(d.Y, nonlens.Y...)

	return d, nil
}

// Shuffle permutes the object axis with a permutation drawn from the given
// seed, applying the identical permutation to tensor rows and labels.
func (d *Dataset) Shuffle(seed int64) {
	r := rand.New(rand.NewSource(seed))
	p := r.Perm(d.Objects)

	stride := d.Times * d.Channels
	X := make([]float64, len(d.X))
	Y := make([]float64, len(d.Y))
	for i, j := range p {
		copy(X[i*stride:(i+1)*stride], d.X[j*stride:(j+1)*stride])
		Y[i] = d.Y[j]
	}
	d.X = X
	d.Y = Y
}

// Row returns the (Times, Channels) feature block and label of object i.
// The block aliases the dataset's buffer.
func (d *Dataset) Row(i int) ([]float64, float64, error) {
	if i < 0 || i >= d.Objects {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", i, d.Objects)
	}
	stride := d.Times * d.Channels
	return d.X[i*stride : (i+1)*stride], d.Y[i], nil
}
