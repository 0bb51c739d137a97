package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/extractor"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/hermes"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/store"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/validator"
)

// ExtractResponse is returned by POST /api/v1/samples/extract.
type ExtractResponse struct {
	Count   int                `json:"count"`
	Records []extractor.Record `json:"records"`
}

// ValidateResponse is returned by POST /api/v1/samples/validate.
type ValidateResponse struct {
	OK bool `json:"ok"`
	*validator.Report
}

// Limits for GET /api/v1/samples.
const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// ListResponse is returned by GET /api/v1/samples.
type ListResponse struct {
	Count   int            `json:"count"`
	Samples []store.Sample `json:"samples"`
}

// StepsResponse is returned by GET /api/v1/samples/{id}/steps.
type StepsResponse struct {
	SampleID uuid.UUID       `json:"sample_id"`
	Steps    []store.StepRow `json:"steps"`
}

// readBody reads the request body, answering 413 when it exceeds the size
// limit and 400 on any other read failure.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return nil, false
	}
	return body, true
}

// listSamples handles GET /api/v1/samples?limit=N.
func (s *Server) listSamples(w http.ResponseWriter, r *http.Request) {
	if s.samples == nil {
		writeError(w, http.StatusServiceUnavailable, "sample store not configured")
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	samples, err := s.samples.ListSamples(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list samples", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list samples")
		return
	}
	if samples == nil {
		samples = []store.Sample{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Count: len(samples), Samples: samples})
}

// sampleSteps handles GET /api/v1/samples/{id}/steps.
func (s *Server) sampleSteps(w http.ResponseWriter, r *http.Request) {
	if s.samples == nil {
		writeError(w, http.StatusServiceUnavailable, "sample store not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sample id")
		return
	}

	steps, err := s.samples.StepsForSample(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to load steps", "sample_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load steps")
		return
	}
	if steps == nil {
		steps = []store.StepRow{}
	}
	writeJSON(w, http.StatusOK, StepsResponse{SampleID: id, Steps: steps})
}

// extract handles POST /api/v1/samples/extract. The body is the raw
// transcript; ?strict=true bounds each pair to the next Prompt: marker.
func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	opts := extractor.Options{StopAtNextPrompt: r.URL.Query().Get("strict") == "true"}
	records := extractor.ExtractWithOptions(string(body), opts)
	if len(records) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no prompt/result pairs found")
		return
	}

	s.logger.Info("transcript extracted", "records", len(records), "strict", opts.StopAtNextPrompt)
	writeJSON(w, http.StatusOK, ExtractResponse{Count: len(records), Records: records})
}

// validate handles POST /api/v1/samples/validate. The body is JSONL.
func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	report, err := validator.Check(bytes.NewReader(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.publisher != nil {
		ev := hermes.ValidatedEvent{
			RequestID:  middleware.GetReqID(r.Context()),
			Valid:      report.Valid,
			Invalid:    report.Invalid,
			Unparsable: report.Unparsable,
			OK:         report.OK(),
			Timestamp:  time.Now().UTC(),
		}
		if err := s.publisher.Publish(hermes.SubjectSamplesValidated, ev); err != nil {
			s.logger.Warn("failed to publish validation event", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, ValidateResponse{OK: report.OK(), Report: report})
}
