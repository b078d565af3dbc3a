package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coordchem/cshm/internal/config"
	"github.com/coordchem/cshm/internal/runstore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := runstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewServer(store, config.EmptyTuningConfig())
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func octahedronCoords() [][3]float64 {
	return [][3]float64{
		{2, 0, 0}, {-2, 0, 0}, {0, 2, 0}, {0, -2, 0}, {0, 0, 2}, {0, 0, -2},
	}
}

func TestHandleMeasureWithGeometrySymbol(t *testing.T) {
	mux := newTestServer(t).ServeMux()

	w := postJSON(t, mux, "/api/measure", measureRequest{
		ActualCoordinates: octahedronCoords(),
		Geometry:          "OC-6",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp measureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Less(t, resp.Measure, 0.01)
	assert.Equal(t, "exact", resp.Quality)
	assert.Len(t, resp.AlignedCoordinates, 6)
	assert.Len(t, resp.Assignment, 6)
}

func TestHandleMeasureWithExplicitReference(t *testing.T) {
	mux := newTestServer(t).ServeMux()

	w := postJSON(t, mux, "/api/measure", measureRequest{
		ActualCoordinates:    octahedronCoords(),
		ReferenceCoordinates: [][3]float64{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp measureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Less(t, resp.Measure, 0.01)
}

func TestHandleMeasureErrors(t *testing.T) {
	mux := newTestServer(t).ServeMux()

	tests := []struct {
		name       string
		req        measureRequest
		wantStatus int
		wantKind   string
	}{
		{
			name:       "unknown geometry",
			req:        measureRequest{ActualCoordinates: octahedronCoords(), Geometry: "XX-99"},
			wantStatus: http.StatusBadRequest,
			wantKind:   "InvalidInput",
		},
		{
			name:       "count mismatch",
			req:        measureRequest{ActualCoordinates: octahedronCoords()[:4], Geometry: "OC-6"},
			wantStatus: http.StatusBadRequest,
			wantKind:   "InvalidInput",
		},
		{
			name: "ligand on metal",
			req: measureRequest{
				ActualCoordinates: [][3]float64{{0, 0, 0}, {-2, 0, 0}, {0, 2, 0}, {0, -2, 0}, {0, 0, 2}, {0, 0, -2}},
				Geometry:          "OC-6",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "DegenerateGeometry",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, mux, "/api/measure", tt.req)
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantKind, resp.ErrorKind)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestHandleMeasureBadBody(t *testing.T) {
	mux := newTestServer(t).ServeMux()
	req := httptest.NewRequest(http.MethodPost, "/api/measure", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleMeasureMethodNotAllowed(t *testing.T) {
	mux := newTestServer(t).ServeMux()
	req := httptest.NewRequest(http.MethodGet, "/api/measure", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleRankPersistsRun(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.ServeMux()

	w := postJSON(t, mux, "/api/rank", rankRequest{ActualCoordinates: octahedronCoords()})
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		RunID  string `json:"run_id"`
		CN     int    `json:"cn"`
		Scores []struct {
			Symbol  string  `json:"symbol"`
			Measure float64 `json:"measure"`
		} `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 6, result.CN)
	require.NotEmpty(t, result.Scores)
	assert.Equal(t, "OC-6", result.Scores[0].Symbol)

	// The run must be retrievable afterwards.
	getReq := httptest.NewRequest(http.MethodGet, "/api/runs/"+result.RunID, nil)
	getW := httptest.NewRecorder()
	mux.ServeHTTP(getW, getReq)
	require.Equal(t, http.StatusOK, getW.Code)

	var rec runstore.RunRecord
	require.NoError(t, json.Unmarshal(getW.Body.Bytes(), &rec))
	assert.Equal(t, runstore.StatusCompleted, rec.Status)
	assert.NotEmpty(t, rec.Results)
}

func TestHandleGetRunNotFound(t *testing.T) {
	mux := newTestServer(t).ServeMux()
	req := httptest.NewRequest(http.MethodGet, "/api/runs/no-such-run", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleListRuns(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.ServeMux()

	for i := 0; i < 3; i++ {
		w := postJSON(t, mux, "/api/rank", rankRequest{ActualCoordinates: octahedronCoords()})
		require.Equal(t, http.StatusOK, w.Code, "rank %d", i)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=2", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var runs []runstore.RunRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	assert.Len(t, runs, 2)
}

func TestHandleGeometries(t *testing.T) {
	mux := newTestServer(t).ServeMux()

	req := httptest.NewRequest(http.MethodGet, "/api/geometries", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var all []struct {
		Symbol string `json:"symbol"`
		CN     int    `json:"cn"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 21)

	req = httptest.NewRequest(http.MethodGet, "/api/geometries?cn=5", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var five []struct {
		Symbol string `json:"symbol"`
		CN     int    `json:"cn"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &five))
	require.Len(t, five, 4)
	for _, g := range five {
		assert.Equal(t, 5, g.CN)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/geometries?cn=bogus", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRankChart(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.ServeMux()

	w := postJSON(t, mux, "/api/rank", rankRequest{ActualCoordinates: octahedronCoords()})
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/debug/rank-chart?run_id=%s", result.RunID), nil)
	chartW := httptest.NewRecorder()
	mux.ServeHTTP(chartW, req)
	require.Equal(t, http.StatusOK, chartW.Code)
	assert.Contains(t, chartW.Body.String(), "echarts")
}
