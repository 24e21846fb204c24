package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/jobdesc"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/parser"
	"github.com/spigell/cv-screener/internal/profile"
	"github.com/spigell/cv-screener/internal/scoring"
)

// AnalyzeRequest carries a CV and either free job-description text or a
// structured job. Title and Company override what is guessed from the text.
type AnalyzeRequest struct {
	CVText         string                   `json:"cv_text"`
	JobDescription string                   `json:"job_description,omitempty"`
	Job            *profile.JobRequirements `json:"job,omitempty"`
	Title          string                   `json:"title,omitempty"`
	Company        string                   `json:"company,omitempty"`
}

type AnalyzeResponse struct {
	RequestID string                    `json:"request_id"`
	Candidate *profile.CandidateProfile `json:"candidate"`
	Result    *scoring.MatchResult      `json:"result"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type HealthResponse struct {
	Status          string `json:"status"`
	Model           string `json:"model,omitempty"`
	KeywordsVersion string `json:"keywords_version"`
}

func (s *Server) handleAnalyze(mode scoring.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := RequestID(r.Context())
		log := logger.WithFields(s.logger, logger.RequestFields(requestID, string(mode))...)

		var req AnalyzeRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			s.fail(w, r, log, &profile.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()})
			return
		}

		job, err := s.job(req)
		if err != nil {
			s.fail(w, r, log, err)
			return
		}

		candidate, err := s.parser.Parse(r.Context(), req.CVText)
		if err != nil {
			s.fail(w, r, log, err)
			return
		}

		result, err := s.scorer.Score(mode, candidate, job)
		if err != nil {
			s.fail(w, r, log, err)
			return
		}

		log.Info("analysis completed",
			zap.String("candidate", result.CandidateName),
			zap.String("job_title", result.JobTitle),
			zap.Float64("overall_score", result.OverallScore),
			zap.String("recommendation", string(result.Recommendation)),
			zap.Int("confidence", result.Confidence),
		)

		s.jsonResponse(w, http.StatusOK, AnalyzeResponse{
			RequestID: requestID,
			Candidate: candidate,
			Result:    result,
		})
	}
}

// job builds requirements before the model is called so bad input costs nothing.
func (s *Server) job(req AnalyzeRequest) (*profile.JobRequirements, error) {
	if req.Job != nil {
		draft := *req.Job
		if req.Title != "" {
			draft.Title = req.Title
		}
		if req.Company != "" {
			draft.Company = req.Company
		}
		return profile.NewJobRequirements(draft)
	}

	text := strings.TrimSpace(req.JobDescription)
	if text == "" {
		return nil, &profile.ValidationError{Field: "job_description", Message: "either job_description or job is required"}
	}
	if utf8.RuneCountInString(text) > s.maxJobLen {
		return nil, &profile.ValidationError{
			Field:   "job_description",
			Message: fmt.Sprintf("must be at most %d characters", s.maxJobLen),
		}
	}

	return jobdesc.Parse(text, s.scorer.Keywords(), jobdesc.Overrides{Title: req.Title, Company: req.Company})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, HealthResponse{
		Status:          "ok",
		Model:           s.model,
		KeywordsVersion: s.scorer.KeywordsVersion(),
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := HTTPStatus(err)
	resp := ErrorResponse{
		Error:     errorCode(err),
		Message:   err.Error(),
		RequestID: RequestID(r.Context()),
	}

	var (
		verr *profile.ValidationError
		perr *parser.ParsingError
	)
	// Fields of a model-produced profile are not the caller's input.
	if errors.As(err, &perr) {
		resp.Kind = string(perr.Kind)
	} else if errors.As(err, &verr) {
		resp.Field = verr.Field
	}

	if status >= http.StatusInternalServerError {
		log.Error("analysis failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Warn("analysis rejected", zap.Int("status", status), zap.Error(err))
	}

	s.jsonResponse(w, status, resp)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encoding response failed", zap.Error(err))
	}
}
