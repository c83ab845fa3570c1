package dataset

import (
	"fmt"

	"github.com/kshedden/gonpy"
)

// Save persists the dataset as two NumPy .npy files: the 3D feature tensor
// at featuresPath and the 1D label vector at labelsPath. Both are float64,
// C order. Nothing is written until the full pipeline has succeeded, so a
// failed run leaves no partial output.
func (d *Dataset) Save(featuresPath, labelsPath string) error {
	if err := writeNpy(featuresPath, d.X, []int{d.Objects, d.Times, d.Channels}); err != nil {
		return fmt.Errorf("failed to write feature tensor: %w", err)
	}
	if err := writeNpy(labelsPath, d.Y, []int{d.Objects}); err != nil {
		return fmt.Errorf("failed to write label vector: %w", err)
	}
	return nil
}

func writeNpy(path string, data []float64, shape []int) error {
	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return err
	}
	w.Shape = shape
	return w.WriteFloat64(data)
}
