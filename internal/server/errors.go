package server

import (
	"errors"
	"net/http"

	"github.com/spigell/cv-screener/internal/parser"
	"github.com/spigell/cv-screener/internal/profile"
	"github.com/spigell/cv-screener/internal/scoring"
)

// StatusClientClosedRequest is used when the caller went away before the answer was ready.
const StatusClientClosedRequest = 499

// HTTPStatus returns the status code for an error produced by an analysis.
func HTTPStatus(err error) int {
	var (
		verr *profile.ValidationError
		perr *parser.ParsingError
	)
	// A ParsingError may wrap the ValidationError of the profile the model
	// produced, so it is matched first.
	switch {
	case errors.As(err, &perr):
		switch perr.Kind {
		case parser.KindTimeout:
			return http.StatusGatewayTimeout
		case parser.KindUnavailable:
			return http.StatusBadGateway
		case parser.KindInvalidResponse:
			return http.StatusUnprocessableEntity
		case parser.KindCanceled:
			return StatusClientClosedRequest
		}
		return http.StatusBadGateway
	case errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		// ScoringError and anything unexpected.
		return http.StatusInternalServerError
	}
}

// errorCode is the machine-readable "error" field of a failed response.
func errorCode(err error) string {
	var (
		verr *profile.ValidationError
		perr *parser.ParsingError
		serr *scoring.ScoringError
	)
	switch {
	case errors.As(err, &perr):
		return "parsing_error"
	case errors.As(err, &verr):
		return "validation_error"
	case errors.As(err, &serr):
		return "scoring_error"
	default:
		return "internal_error"
	}
}
