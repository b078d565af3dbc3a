package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coordchem/cshm/internal/config"
	"github.com/coordchem/cshm/internal/cshm"
	"github.com/coordchem/cshm/internal/geom"
	"github.com/coordchem/cshm/internal/rank"
	"github.com/coordchem/cshm/internal/refgeom"
	"github.com/coordchem/cshm/internal/runstore"
)

// Server exposes the shape-measure engine over HTTP.
type Server struct {
	store  *runstore.Store
	tuning *config.TuningConfig
}

func NewServer(store *runstore.Store, tuning *config.TuningConfig) *Server {
	return &Server{store: store, tuning: tuning}
}

// ServeMux wires the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/measure", s.handleMeasure)
	mux.HandleFunc("/api/rank", s.handleRank)
	mux.HandleFunc("/api/geometries", s.handleGeometries)
	mux.HandleFunc("/api/runs/", s.handleGetRun)
	mux.HandleFunc("/api/runs", s.handleListRuns)
	mux.HandleFunc("/debug/rank-chart", s.handleRankChart)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Continuous shape measure server\n"))
}

// measureRequest is the wire form of one computation request.
type measureRequest struct {
	ActualCoordinates    [][3]float64  `json:"actual_coordinates"`
	ReferenceCoordinates [][3]float64  `json:"reference_coordinates,omitempty"`
	Geometry             string        `json:"geometry,omitempty"` // CShM symbol, alternative to explicit coordinates
	Mode                 string        `json:"mode,omitempty"`
	SeedRotations        [][16]float64 `json:"seed_rotations,omitempty"`
}

// measureResponse is the wire form of a successful computation.
type measureResponse struct {
	Measure            float64      `json:"measure"`
	Quality            string       `json:"quality"`
	AlignedCoordinates [][3]float64 `json:"aligned_coordinates"`
	Rotation           [16]float64  `json:"rotation"`
	Assignment         []int        `json:"assignment"`
}

type errorResponse struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

func (s *Server) handleMeasure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req measureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "InvalidInput", fmt.Sprintf("bad request body: %v", err))
		return
	}

	reference := req.ReferenceCoordinates
	if req.Geometry != "" {
		g, ok := refgeom.Lookup(req.Geometry)
		if !ok {
			s.writeJSONError(w, http.StatusBadRequest, "InvalidInput", fmt.Sprintf("unknown geometry %q", req.Geometry))
			return
		}
		reference = nil
		for _, v := range g.Vertices {
			reference = append(reference, [3]float64{v.X, v.Y, v.Z})
		}
	}

	mode := cshm.ParseMode(req.Mode)
	params := s.tuning.SearchParams(mode)
	opts := cshm.Options{
		Mode:   mode,
		Params: &params,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, sr := range req.SeedRotations {
		opts.Seeds = append(opts.Seeds, geom.Mat4(sr))
	}

	res, err := cshm.Compute(r.Context(), toVecs(req.ActualCoordinates), toVecs(reference), opts)
	if err != nil {
		s.writeComputeError(w, err)
		return
	}

	resp := measureResponse{
		Measure:    res.Measure,
		Quality:    string(cshm.GradeMeasure(res.Measure)),
		Rotation:   res.Rotation.Flat(),
		Assignment: res.Assignment,
	}
	for _, p := range res.AlignedCoords {
		resp.AlignedCoordinates = append(resp.AlignedCoordinates, [3]float64{p.X, p.Y, p.Z})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type rankRequest struct {
	ActualCoordinates [][3]float64 `json:"actual_coordinates"`
	Mode              string       `json:"mode,omitempty"`
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "InvalidInput", fmt.Sprintf("bad request body: %v", err))
		return
	}

	mode := cshm.ParseMode(req.Mode)
	params := s.tuning.SearchParams(mode)
	ranker := &rank.Ranker{
		Workers: s.tuning.GetWorkers(),
		Params:  &params,
	}

	result, err := ranker.RankAndPersist(r.Context(), s.store, toVecs(req.ActualCoordinates), mode)
	if err != nil {
		s.writeComputeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGeometries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	geometries := refgeom.All()
	if cnStr := r.URL.Query().Get("cn"); cnStr != "" {
		cn, err := strconv.Atoi(cnStr)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "InvalidInput", "cn must be an integer")
			return
		}
		geometries = refgeom.ByCN(cn)
	}

	type geometryInfo struct {
		Symbol        string       `json:"symbol"`
		Name          string       `json:"name"`
		CN            int          `json:"cn"`
		Vertices      [][3]float64 `json:"vertices"`
		CentralVertex bool         `json:"central_vertex"`
	}
	var out []geometryInfo
	for _, g := range geometries {
		info := geometryInfo{Symbol: g.Symbol, Name: g.Name, CN: g.CN, CentralVertex: g.CentralVertex}
		for _, v := range g.Vertices {
			info.Vertices = append(info.Vertices, [3]float64{v.X, v.Y, v.Z})
		}
		out = append(out, info)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Internal", fmt.Sprintf("listing runs: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if runID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "InvalidInput", "missing run id")
		return
	}

	run, err := s.store.GetRun(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, "NotFound", fmt.Sprintf("run %s not found", runID))
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// writeComputeError maps the engine's error taxonomy onto HTTP statuses and
// the wire-level error kinds.
func (s *Server) writeComputeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cshm.ErrInvalidInput):
		s.writeJSONError(w, http.StatusBadRequest, "InvalidInput", err.Error())
	case errors.Is(err, cshm.ErrDegenerateGeometry):
		s.writeJSONError(w, http.StatusUnprocessableEntity, "DegenerateGeometry", err.Error())
	case errors.Is(err, cshm.ErrCancelled):
		s.writeJSONError(w, http.StatusRequestTimeout, "Cancelled", err.Error())
	default:
		s.writeJSONError(w, http.StatusInternalServerError, "Internal", err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, errorResponse{ErrorKind: kind, Message: message})
}

func toVecs(coords [][3]float64) []geom.Vec3 {
	out := make([]geom.Vec3, len(coords))
	for i, c := range coords {
		out[i] = geom.Vec3{X: c[0], Y: c[1], Z: c[2]}
	}
	return out
}
