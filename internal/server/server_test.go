package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-evalbox"
	"github.com/swdee/go-evalbox/internal/config"
)

const detectionAnnotations = `{"sample_id":"img1","source":"ground_truth","category":"car","box":{"x":0,"y":0,"width":10,"height":10}}
{"sample_id":"img2","source":"ground_truth","category":"bus","box":{"x":5,"y":5,"width":20,"height":20}}
{"sample_id":"img1","source":"model-a","category":"car","confidence":0.9,"box":{"x":0,"y":0,"width":10,"height":10}}
{"sample_id":"img2","source":"model-a","category":"bus","confidence":0.8,"box":{"x":5,"y":5,"width":20,"height":20}}
`

const classificationAnnotations = `{"sample_id":"s1","source":"ground_truth","category":"cat"}
{"sample_id":"s1","source":"model-a","category":"cat","confidence":0.9}
`

// newTestServer builds a Server over a temp data root holding a detection
// and a classification dataset.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	root := t.TempDir()

	writeDataset(t, root, "traffic", `{"task": "detection"}`, detectionAnnotations)
	writeDataset(t, root, "pets", `{"task": "classification"}`, classificationAnnotations)

	cfg := &config.Config{
		AppEnv:       "test",
		ListenAddr:   ":0",
		DataDir:      root,
		IOUThreshold: 0.5,
		EvalSlots:    2,
	}

	logger := zerolog.Nop()

	return New(cfg, &logger)
}

func writeDataset(t *testing.T, root, name, manifest, annotations string) {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.Mkdir(dir, 0o755))

	err := os.WriteFile(filepath.Join(dir, "dataset.json"), []byte(manifest), 0o644)
	require.NoError(t, err)

	err = os.WriteFile(filepath.Join(dir, "annotations.jsonl"), []byte(annotations), 0o644)
	require.NoError(t, err)
}

// doJSON posts body to path and returns the recorded response.
func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	return rec
}

func TestHandleEvaluateDetection(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/evaluate",
		`{"dataset": "traffic", "source": "model-a"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		RequestID string          `json:"request_id"`
		Dataset   string          `json:"dataset"`
		Result    json.RawMessage `json:"result"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RequestID)
	require.Equal(t, "traffic", resp.Dataset)

	var result evalbox.DetectionResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))

	require.Equal(t, 2, result.GroundTruths)
	require.Equal(t, 2, result.Predictions)
	require.Equal(t, 0.5, result.IOUThreshold, "server default applied")
	require.InDelta(t, 1.0, result.Metrics.MeanAP50, 1e-9)
}

func TestHandleEvaluateClassification(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/evaluate",
		`{"dataset": "pets", "source": "model-a"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Result json.RawMessage `json:"result"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	var result evalbox.ClassificationResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))

	require.Equal(t, 1, result.Samples)
	require.InDelta(t, 1.0, result.Metrics.Accuracy, 1e-9)
}

func TestHandleEvaluateUnknownDataset(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/evaluate",
		`{"dataset": "nope", "source": "model-a"}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleEvaluateBadThreshold(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/evaluate",
		`{"dataset": "traffic", "source": "model-a", "iou_threshold": 1.5}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Error, "threshold")
}

func TestHandleEvaluateIOUOnClassification(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/evaluate",
		`{"dataset": "pets", "source": "model-a", "iou_threshold": 0.5}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEvaluateValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing source", body: `{"dataset": "traffic"}`, want: http.StatusBadRequest},
		{name: "missing dataset", body: `{"source": "model-a"}`, want: http.StatusBadRequest},
		{name: "path traversal", body: `{"dataset": "../traffic", "source": "model-a"}`, want: http.StatusBadRequest},
		{name: "broken body", body: `{`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/evaluate", tt.body)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandleEvaluateMethod(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/evaluate", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleDatasets(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/datasets", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []datasetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))

	require.Len(t, infos, 2)
	require.Equal(t, "pets", infos[0].Name)
	require.Equal(t, "traffic", infos[1].Name)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzMissingDataDir(t *testing.T) {
	cfg := &config.Config{
		DataDir:   filepath.Join(t.TempDir(), "missing"),
		EvalSlots: 1,
	}

	logger := zerolog.Nop()
	s := New(cfg, &logger)

	rec := doJSON(t, s, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
