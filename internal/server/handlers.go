package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/splitcheck/splitcheck/internal/dataset"
	"github.com/splitcheck/splitcheck/internal/logger"
	"github.com/splitcheck/splitcheck/internal/report"
	"github.com/splitcheck/splitcheck/internal/stats"
)

type HealthResponse struct {
	Status        string `json:"status"`
	Dataset       string `json:"dataset"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Dataset:       s.cfg.Dataset.Path,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

// RecordRequest is one visitor in an inline analysis request
type RecordRequest struct {
	Group     string    `json:"group"`
	Converted bool      `json:"converted"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalyzeRequest carries records inline. Unset fields fall back to the
// server configuration.
type AnalyzeRequest struct {
	Records            []RecordRequest `json:"records"`
	Simulations        int             `json:"simulations"`
	Seed               *uint64         `json:"seed"`
	ControlLabel       string          `json:"control_label"`
	TreatmentLabel     string          `json:"treatment_label"`
	Tail               string          `json:"tail"`
	IncludeDifferences bool            `json:"include_differences"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	const endpoint = "analyze"
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AnalyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := s.cfg.Options()
	if req.Simulations != 0 {
		opts.Simulations = req.Simulations
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	if req.ControlLabel != "" {
		opts.ControlLabel = req.ControlLabel
	}
	if req.TreatmentLabel != "" {
		opts.TreatmentLabel = req.TreatmentLabel
	}
	if req.Tail != "" {
		tail, err := stats.ParseTail(req.Tail)
		if err != nil {
			s.fail(w, endpoint, err)
			return
		}
		opts.Tail = tail
	}

	if err := s.checkWorkload(opts.Simulations, len(req.Records)); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	records := make([]stats.VisitorRecord, len(req.Records))
	for i, rec := range req.Records {
		records[i] = stats.VisitorRecord{Group: rec.Group, Converted: rec.Converted, Timestamp: rec.Timestamp}
	}

	s.analyze(w, endpoint, start, records, opts, req.IncludeDifferences)
}

// handleAnalysis analyzes the configured dataset
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	const endpoint = "analysis"
	start := time.Now()

	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, err := dataset.Load(r.Context(), s.cfg.Dataset.Path, s.cfg.Dataset.Table)
	if err != nil {
		s.fail(w, endpoint, fmt.Errorf("failed to load dataset: %w", err))
		return
	}

	opts := s.cfg.Options()
	if err := s.checkWorkload(opts.Simulations, len(records)); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.analyze(w, endpoint, start, records, opts, r.URL.Query().Get("differences") == "true")
}

// analyze runs the analysis and records its duration from start, which the
// callers take before decoding or loading records.
func (s *Server) analyze(w http.ResponseWriter, endpoint string, start time.Time, records []stats.VisitorRecord, opts stats.Options, withDifferences bool) {
	runID := uuid.NewString()

	result, err := stats.Analyze(records, opts)
	if err != nil {
		s.fail(w, endpoint, err)
		return
	}
	s.metrics.observe(endpoint, outcomeOf(result.Decision.Significant), start)

	logger.Log.WithFields(logrus.Fields{
		"run_id":      runID,
		"endpoint":    endpoint,
		"records":     len(records),
		"simulations": opts.Simulations,
		"p_value":     result.Null.PValue,
	}).Info("analysis complete")

	writeJSON(w, http.StatusOK, report.New(runID, result, opts, withDifferences))
}

// NullTestRequest holds raw simulator parameters. PNull is required.
type NullTestRequest struct {
	PNull              *float64 `json:"p_null"`
	NControl           int      `json:"n_control"`
	NTreatment         int      `json:"n_treatment"`
	ObsDiff            float64  `json:"obs_diff"`
	Simulations        int      `json:"simulations"`
	Seed               *uint64  `json:"seed"`
	Tail               string   `json:"tail"`
	IncludeDifferences bool     `json:"include_differences"`
}

func (s *Server) handleNullTest(w http.ResponseWriter, r *http.Request) {
	const endpoint = "null-test"
	start := time.Now()

	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req NullTestRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PNull == nil {
		writeJSONError(w, http.StatusBadRequest, "p_null is required")
		return
	}

	opts := s.cfg.Options()
	params := stats.NullTestParams{
		PNull:       *req.PNull,
		NControl:    req.NControl,
		NTreatment:  req.NTreatment,
		ObsDiff:     req.ObsDiff,
		Simulations: opts.Simulations,
		Seed:        opts.Seed,
		Workers:     opts.Workers,
		Tail:        opts.Tail,
	}
	if req.Simulations != 0 {
		params.Simulations = req.Simulations
	}
	if req.Seed != nil {
		params.Seed = *req.Seed
	}
	if req.Tail != "" {
		tail, err := stats.ParseTail(req.Tail)
		if err != nil {
			s.fail(w, endpoint, err)
			return
		}
		params.Tail = tail
	}

	if err := s.checkWorkload(params.Simulations, params.NControl, params.NTreatment); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := stats.RunNullTest(params)
	if err != nil {
		s.fail(w, endpoint, err)
		return
	}

	rep := report.NewNullTest(uuid.NewString(), params, result, opts.Threshold, req.IncludeDifferences)
	s.metrics.observe(endpoint, outcomeOf(rep.Significant), start)

	logger.Log.WithFields(logrus.Fields{
		"run_id":      rep.RunID,
		"endpoint":    endpoint,
		"simulations": params.Simulations,
		"p_value":     rep.PValue,
	}).Info("null test complete")

	writeJSON(w, http.StatusOK, rep)
}

// checkWorkload rejects requests whose simulation count, or simulation count
// times the visitors of all groups, is over the configured limits.
func (s *Server) checkWorkload(simulations int, groupSizes ...int) error {
	limits := s.cfg.Server
	if simulations > limits.MaxSimulations {
		return fmt.Errorf("simulations exceeds server limit of %d", limits.MaxSimulations)
	}
	if simulations <= 0 {
		return nil
	}

	budget := limits.MaxTrials / int64(simulations)
	for _, n := range groupSizes {
		budget -= int64(max(n, 0))
		if budget < 0 {
			return fmt.Errorf("simulations times group sizes exceeds server limit of %d trials", limits.MaxTrials)
		}
	}
	return nil
}

// fail maps analysis errors to 422 and everything else to 500.
func (s *Server) fail(w http.ResponseWriter, endpoint string, err error) {
	status := statusFor(err)
	outcome := outcomeError
	if status == http.StatusUnprocessableEntity {
		outcome = outcomeRejected
	}
	s.metrics.runs.WithLabelValues(endpoint, outcome).Inc()

	entry := logger.Log.WithField("endpoint", endpoint).WithError(err)
	if status == http.StatusInternalServerError {
		entry.Error("analysis failed")
		writeJSONError(w, status, "internal server error")
		return
	}
	entry.Warn("analysis rejected")
	writeJSONError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, stats.ErrAggregation),
		errors.Is(err, stats.ErrInvalidParameter),
		errors.Is(err, stats.ErrDegenerateInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
