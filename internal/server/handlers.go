package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/swdee/go-evalbox"
	"github.com/swdee/go-evalbox/annotation"
	"github.com/swdee/go-evalbox/dataset"
)

// evaluateRequest is the body of POST /api/evaluate.
type evaluateRequest struct {
	// Dataset names a directory under the data root.
	Dataset string `json:"dataset"`
	// Source selects the prediction run to score.
	Source string `json:"source"`
	// Split optionally restricts scoring to one dataset split.
	Split string `json:"split,omitempty"`
	// IOUThreshold overrides the manifest and server defaults when set.
	IOUThreshold *float64 `json:"iou_threshold,omitempty"`
	// ConfidenceThreshold overrides the manifest and server defaults when
	// set.
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
}

// evaluateResponse wraps an evaluation result with request bookkeeping.
type evaluateResponse struct {
	RequestID string         `json:"request_id"`
	Dataset   string         `json:"dataset"`
	Source    string         `json:"source"`
	Split     string         `json:"split,omitempty"`
	Result    evalbox.Result `json:"result"`
}

// datasetInfo is one entry of GET /api/datasets.
type datasetInfo struct {
	Name string              `json:"name"`
	Task annotation.TaskType `json:"task"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req evaluateRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Dataset == "" || req.Source == "" {
		writeError(w, http.StatusBadRequest, "dataset and source are required")
		return
	}

	// dataset names address directories directly under the data root
	if req.Dataset != filepath.Base(req.Dataset) {
		writeError(w, http.StatusBadRequest, "invalid dataset name")
		return
	}

	requestID := uuid.NewString()

	logger := s.logger.With().
		Str("request_id", requestID).
		Str("dataset", req.Dataset).
		Str("source", req.Source).
		Logger()

	dir := filepath.Join(s.cfg.DataDir, req.Dataset)

	loadStart := time.Now()

	manifest, err := dataset.LoadManifest(dir)

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "unknown dataset "+req.Dataset)
			return
		}

		logger.Error().Err(err).Msg("manifest load failed")
		writeError(w, http.StatusInternalServerError, "dataset error")

		return
	}

	records, err := manifest.Load(dir)

	if err != nil {
		logger.Error().Err(err).Msg("annotation load failed")
		writeError(w, http.StatusInternalServerError, "dataset error")

		return
	}

	categories, err := manifest.LoadCategoryList(dir)

	if err != nil {
		logger.Error().Err(err).Msg("category list load failed")
		writeError(w, http.StatusInternalServerError, "dataset error")

		return
	}

	datasetLoadDuration.Observe(time.Since(loadStart).Seconds())

	groundTruth := dataset.Filter(records, annotation.SourceGroundTruth, req.Split)
	predictions := dataset.Filter(records, req.Source, req.Split)

	params := evalbox.Params{
		Task:                manifest.Task,
		ConfidenceThreshold: s.confidence(&req, manifest),
		Categories:          categories,
	}

	if manifest.Task == annotation.TaskDetection {
		params.IOUThreshold = s.detectionIOU(&req, manifest)
	} else if req.IOUThreshold != nil {
		// let the engine report the task mismatch
		params.IOUThreshold = *req.IOUThreshold
	}

	if err := s.acquire(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server shutting down")
		return
	}

	evalStart := time.Now()

	result, err := evalbox.Evaluate(groundTruth, predictions, params)

	s.release()

	task := string(manifest.Task)

	if err != nil {
		evaluationsTotal.WithLabelValues(task, "error").Inc()

		logger.Warn().Err(err).Msg("evaluation rejected")
		writeError(w, statusFor(err), err.Error())

		return
	}

	evaluationsTotal.WithLabelValues(task, "ok").Inc()
	evaluationDuration.WithLabelValues(task).Observe(time.Since(evalStart).Seconds())
	evaluationAnnotations.WithLabelValues(task).Observe(float64(len(records)))

	logger.Info().
		Int("ground_truths", len(groundTruth)).
		Int("predictions", len(predictions)).
		Dur("elapsed", time.Since(evalStart)).
		Msg("evaluation complete")

	writeJSON(w, http.StatusOK, evaluateResponse{
		RequestID: requestID,
		Dataset:   req.Dataset,
		Source:    req.Source,
		Split:     req.Split,
		Result:    result,
	})
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}

	names, err := dataset.Discover(s.cfg.DataDir)

	if err != nil {
		s.logger.Error().Err(err).Msg("dataset discovery failed")
		writeError(w, http.StatusInternalServerError, "data dir error")

		return
	}

	infos := make([]datasetInfo, 0, len(names))

	for _, name := range names {

		manifest, err := dataset.LoadManifest(filepath.Join(s.cfg.DataDir, name))

		if err != nil {
			s.logger.Warn().Err(err).Str("dataset", name).
				Msg("skipping dataset with a broken manifest")
			continue
		}

		infos = append(infos, datasetInfo{Name: manifest.Name, Task: manifest.Task})
	}

	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {

	if _, err := os.Stat(s.cfg.DataDir); err != nil {
		writeError(w, http.StatusServiceUnavailable, "data dir error: "+err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// detectionIOU resolves the IoU threshold, request over manifest over server
// default.
func (s *Server) detectionIOU(req *evaluateRequest, m *dataset.Manifest) float64 {

	if req.IOUThreshold != nil {
		return *req.IOUThreshold
	}

	if m.IOUThreshold != 0 {
		return m.IOUThreshold
	}

	return s.cfg.IOUThreshold
}

// confidence resolves the confidence threshold, request over manifest over
// server default.
func (s *Server) confidence(req *evaluateRequest, m *dataset.Manifest) float64 {

	if req.ConfidenceThreshold != nil {
		return *req.ConfidenceThreshold
	}

	if m.ConfidenceThreshold != 0 {
		return m.ConfidenceThreshold
	}

	return s.cfg.ConfidenceThreshold
}

// statusFor maps evaluation errors to HTTP status codes.
func statusFor(err error) int {

	switch {
	case errors.Is(err, evalbox.ErrInvalidThreshold),
		errors.Is(err, evalbox.ErrTaskMismatch),
		errors.Is(err, evalbox.ErrUnknownTask):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {

	writeJSON(w, status, errorResponse{Error: msg})
}
