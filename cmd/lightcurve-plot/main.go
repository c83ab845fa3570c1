// Command lightcurve-plot renders the per-filter aperture-magnitude light
// curve of a single object from a raw source table, for visual inspection of
// candidates before dataset generation.
package main

import (
	"flag"
	"fmt"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/deepqso/dataloader/dataset"
	"github.com/deepqso/dataloader/tables"
)

var (
	srcPath  = flag.String("src", "", "Source observation table (CSV)")
	objectID = flag.Int64("object", 0, "Object identifier to plot")
	outPath  = flag.String("out", "lightcurve.png", "Output image")
)

func main() {
	flag.Parse()
	if *srcPath == "" {
		log.Fatal("missing -src")
	}

	t, err := tables.ReadCSV(*srcPath)
	if err != nil {
		log.Fatalf("failed to load table: %v", err)
	}

	if err := plotLightcurve(t, *objectID, *outPath); err != nil {
		log.Fatalf("failed to plot: %v", err)
	}
	log.Printf("wrote %s", *outPath)
}

func plotLightcurve(t *tables.Table, objectID int64, outPath string) error {
	apMag, err := t.Attr("apMag")
	if err != nil {
		return err
	}

	curves := make(map[string]plotter.XYs, dataset.NumFilters)
	for i := 0; i < t.NumRows(); i++ {
		if t.ObjectID[i] != objectID {
			continue
		}
		f := t.Filter[i]
		curves[f] = append(curves[f], plotter.XY{X: t.MJD[i], Y: apMag[i]})
	}
	if len(curves) == 0 {
		return fmt.Errorf("no observations for object %d", objectID)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Object %d", objectID)
	p.X.Label.Text = "MJD"
	p.Y.Label.Text = "apMag"

	for i, f := range dataset.Filters {
		xys, ok := curves[f]
		if !ok {
			continue
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		s.Color = plotutil.Color(i)
		p.Add(s)
		p.Legend.Add(f, s)
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, outPath)
}
