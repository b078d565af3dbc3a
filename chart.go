package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/coordchem/cshm/internal/rank"
)

// handleRankChart renders a quick bar chart (HTML) of a persisted run's
// measures using go-echarts. This is a debugging-only endpoint (no auth) to
// eyeball a ranking without a frontend.
// Query params:
//   - run_id (required): a completed run from the store
func (s *Server) handleRankChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "InvalidInput", "missing run_id")
		return
	}

	record, err := s.store.GetRun(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, "NotFound", fmt.Sprintf("run %s not found", runID))
		return
	}
	if len(record.Results) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "NotFound", "run has no results yet")
		return
	}

	var result rank.RunResult
	if err := json.Unmarshal(record.Results, &result); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Internal", fmt.Sprintf("decoding results: %v", err))
		return
	}

	var symbols []string
	var values []opts.BarData
	for _, score := range result.Scores {
		symbols = append(symbols, score.Symbol)
		values = append(values, opts.BarData{Value: score.Measure})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Shape measures, run %s (CN %d, %s mode)", result.RunID, result.CN, result.Mode),
			Subtitle: "Lower is closer to the ideal polyhedron; 0 is a perfect match",
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "CShM"}),
	)
	bar.SetXAxis(symbols).AddSeries("measure", values)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := bar.Render(w); err != nil {
		http.Error(w, fmt.Sprintf("rendering chart: %v", err), http.StatusInternalServerError)
	}
}
