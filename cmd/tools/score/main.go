// Command score ranks an observed coordination sphere against every
// reference geometry of its coordination number and prints the result.
//
// Usage:
//
//	score -coords coords.json [-mode intensive] [-seed 7]
//
// The coords file holds a JSON array of [x,y,z] triples, metal-relative.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/coordchem/cshm/internal/cshm"
	"github.com/coordchem/cshm/internal/geom"
	"github.com/coordchem/cshm/internal/rank"
)

var (
	coordsPath = flag.String("coords", "", "JSON file with actual coordinates ([[x,y,z],...])")
	modeName   = flag.String("mode", "default", "Search mode: default or intensive")
	seed       = flag.Int64("seed", 0, "RNG seed (0 = time-based)")
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

	ranker := &rank.Ranker{Workers: runtime.NumCPU(), Seed: *seed}
	result, err := ranker.Rank(context.Background(), actual, cshm.ParseMode(*modeName))
	if err != nil {
		log.Fatalf("Ranking failed: %v", err)
	}

	fmt.Printf("CN %d, %s mode, %d geometries, %v\n", result.CN, result.Mode, len(result.Scores), result.Elapsed)
	fmt.Printf("%-10s %-40s %10s  %s\n", "SYMBOL", "NAME", "MEASURE", "QUALITY")
	for _, s := range result.Scores {
		fmt.Printf("%-10s %-40s %10.4f  %s\n", s.Symbol, s.Name, s.Measure, s.Quality)
	}
}
