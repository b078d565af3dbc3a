// Command anneal-trace runs one shape-measure computation while capturing
// progress events, then plots the best-measure convergence curve to a PNG.
// Useful when tuning annealing budgets and temperatures.
//
// Usage:
//
//	anneal-trace -geometry OC-6 -coords coords.json -mode intensive -out trace.png
//
// The coords file holds a JSON array of [x,y,z] triples, metal-relative.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/coordchem/cshm/internal/cshm"
	"github.com/coordchem/cshm/internal/geom"
	"github.com/coordchem/cshm/internal/refgeom"
)

var (
	coordsPath  = flag.String("coords", "", "JSON file with actual coordinates ([[x,y,z],...])")
	geometrySym = flag.String("geometry", "OC-6", "Reference geometry symbol")
	modeName    = flag.String("mode", "default", "Search mode: default or intensive")
	outPath     = flag.String("out", "anneal_trace.png", "Output PNG path")
	seed        = flag.Int64("seed", 1, "RNG seed")
)

func main() {
	flag.Parse()

	if *coordsPath == "" {
		log.Fatal("Missing -coords")
	}
	data, err := os.ReadFile(*coordsPath)
	if err != nil {
		log.Fatalf("Failed to read coords: %v", err)
	}
	var coords [][3]float64
	if err := json.Unmarshal(data, &coords); err != nil {
		log.Fatalf("Failed to parse coords: %v", err)
	}
	actual := make([]geom.Vec3, len(coords))
	for i, c := range coords {
		actual[i] = geom.Vec3{X: c[0], Y: c[1], Z: c[2]}
	}

	g, ok := refgeom.Lookup(*geometrySym)
	if !ok {
		log.Fatalf("Unknown geometry %q", *geometrySym)
	}

	// Drain progress events concurrently; the engine drops events when the
	// consumer lags, so the channel gets some slack.
	progress := make(chan cshm.Progress, 256)
	var trace plotter.XYs
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		for p := range progress {
			trace = append(trace, plotter.XY{X: float64(i), Y: p.Best})
			i++
		}
	}()

	res, err := cshm.Compute(context.Background(), actual, g.Vertices, cshm.Options{
		Mode:     cshm.ParseMode(*modeName),
		Progress: progress,
		Rand:     rand.New(rand.NewSource(*seed)),
	})
	close(progress)
	wg.Wait()
	if err != nil {
		log.Fatalf("Compute failed: %v", err)
	}

	log.Printf("Measure %s vs %s: %.4f (%s)", *coordsPath, g.Symbol, res.Measure, cshm.GradeMeasure(res.Measure))

	if len(trace) == 0 {
		log.Fatal("No progress events captured; nothing to plot")
	}

	p := plot.New()
	p.Title.Text = "Best measure convergence: " + g.Symbol
	p.X.Label.Text = "progress event"
	p.Y.Label.Text = "best CShM"

	line, err := plotter.NewLine(trace)
	if err != nil {
		log.Fatalf("Failed to build line: %v", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, *outPath); err != nil {
		log.Fatalf("Failed to save plot: %v", err)
	}
	log.Printf("Wrote %s (%d events)", *outPath, len(trace))
}
