package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/cv-screener/internal/parser"
	"github.com/spigell/cv-screener/internal/profile"
	"github.com/spigell/cv-screener/internal/scoring"
	"github.com/spigell/cv-screener/internal/server/ratelimit"
)

const jobText = `Data Engineer
Company: Beta

Requirements:
- Python and SQL
- 2+ years of experience
`

type stubParser struct {
	err   error
	calls atomic.Int32
}

func (p *stubParser) Parse(ctx context.Context, cvText string) (*profile.CandidateProfile, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	if strings.TrimSpace(cvText) == "" {
		return nil, &profile.ValidationError{Field: "cv_text", Message: "must not be empty"}
	}
	return profile.NewCandidateProfile(profile.CandidateProfile{
		Name:   "Ann Lee",
		Skills: []string{"Python", "SQL"},
		Experience: []profile.Experience{
			{Title: "Data Engineer", Company: "Acme", DurationMonths: 36, Description: "Built pipelines"},
		},
	})
}

func newTestServer(t *testing.T, p CVParser, limiter ratelimit.Store, log *zap.Logger) http.Handler {
	t.Helper()

	scorer, err := scoring.New(scoring.Config{}, zap.NewNop())
	require.NoError(t, err)

	s, err := New(Config{MaxJobDescriptionLength: 200}, Deps{
		Parser:  p,
		Scorer:  scorer,
		Model:   "test-model",
		Limiter: limiter,
	}, log)
	require.NoError(t, err)
	return s.Handler()
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.RemoteAddr = "192.0.2.10:40000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &stubParser{}, nil, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test-model", resp.Model)
	assert.NotEmpty(t, resp.KeywordsVersion)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAnalyzeFromJobDescription(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &stubParser{}, nil, nil)
	w := post(t, h, "/api/analyze", AnalyzeRequest{CVText: "Ann Lee, data engineer", JobDescription: jobText})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, w.Header().Get(RequestIDHeader), resp.RequestID)
	assert.Equal(t, "Ann Lee", resp.Candidate.Name)
	assert.Equal(t, scoring.ModeStandard, resp.Result.Mode)
	assert.Equal(t, "Data Engineer", resp.Result.JobTitle)
	assert.Equal(t, 100.0, resp.Result.OverallScore)
	assert.Equal(t, scoring.StrongMatch, resp.Result.Recommendation)
	assert.Equal(t, []string{"python", "sql"}, resp.Result.MatchedSkills)
}

func TestAnalyzeEnhancedWithStructuredJob(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &stubParser{}, nil, nil)
	w := post(t, h, "/api/analyze-enhanced", AnalyzeRequest{
		CVText: "Ann Lee",
		Job: &profile.JobRequirements{
			Title:          "Analytics Engineer",
			Company:        "Beta",
			Description:    "Own the warehouse.",
			RequiredSkills: []string{"sql", "dbt"},
		},
		Company: "Gamma",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, scoring.ModeEnhanced, resp.Result.Mode)
	assert.Len(t, resp.Result.SubScores, len(scoring.Dimensions(scoring.ModeEnhanced)))
	assert.Equal(t, []string{"dbt"}, resp.Result.MissingSkills)
}

func TestAnalyzeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		parserErr error
		body      any
		status    int
		code      string
		field     string
		parsed    bool
	}{
		{
			name:   "malformed json",
			body:   `{"cv_text":`,
			status: http.StatusBadRequest,
			code:   "validation_error",
			field:  "body",
		},
		{
			name:   "unknown field",
			body:   `{"cv_text":"x","resume":"y"}`,
			status: http.StatusBadRequest,
			code:   "validation_error",
			field:  "body",
		},
		{
			name:   "no job",
			body:   AnalyzeRequest{CVText: "cv"},
			status: http.StatusBadRequest,
			code:   "validation_error",
			field:  "job_description",
		},
		{
			name:   "job description too long",
			body:   AnalyzeRequest{CVText: "cv", JobDescription: strings.Repeat("a", 201)},
			status: http.StatusBadRequest,
			code:   "validation_error",
			field:  "job_description",
		},
		{
			name:   "invalid structured job",
			body:   AnalyzeRequest{CVText: "cv", Job: &profile.JobRequirements{Title: "T", Description: "D"}},
			status: http.StatusBadRequest,
			code:   "validation_error",
			field:  "company",
		},
		{
			name:   "empty cv",
			body:   AnalyzeRequest{JobDescription: jobText},
			status: http.StatusBadRequest,
			code:   "validation_error",
			field:  "cv_text",
			parsed: true,
		},
		{
			name:      "model timeout",
			parserErr: &parser.ParsingError{Kind: parser.KindTimeout, Message: "slow"},
			body:      AnalyzeRequest{CVText: "cv", JobDescription: jobText},
			status:    http.StatusGatewayTimeout,
			code:      "parsing_error",
			parsed:    true,
		},
		{
			name: "model profile fails validation",
			parserErr: &parser.ParsingError{
				Kind:    parser.KindInvalidResponse,
				Message: "extracted profile failed validation",
				Cause:   &profile.ValidationError{Field: "experience[0].duration_months", Message: "must not be negative"},
			},
			body:   AnalyzeRequest{CVText: "cv", JobDescription: jobText},
			status: http.StatusUnprocessableEntity,
			code:   "parsing_error",
			parsed: true,
		},
		{
			name:      "model unavailable",
			parserErr: &parser.ParsingError{Kind: parser.KindUnavailable, Message: "down"},
			body:      AnalyzeRequest{CVText: "cv", JobDescription: jobText},
			status:    http.StatusBadGateway,
			code:      "parsing_error",
			parsed:    true,
		},
		{
			name:      "model output unusable",
			parserErr: &parser.ParsingError{Kind: parser.KindInvalidResponse, Message: "garbage"},
			body:      AnalyzeRequest{CVText: "cv", JobDescription: jobText},
			status:    http.StatusUnprocessableEntity,
			code:      "parsing_error",
			parsed:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &stubParser{err: tt.parserErr}
			w := post(t, newTestServer(t, p, nil, nil), "/api/analyze", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error)
			assert.Equal(t, tt.field, resp.Field)
			assert.NotEmpty(t, resp.RequestID)
			assert.Equal(t, tt.parsed, p.calls.Load() > 0)
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(&scoring.ScoringError{Message: "bad weights"}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.Equal(t, StatusClientClosedRequest, HTTPStatus(&parser.ParsingError{Kind: parser.KindCanceled}))
	assert.Equal(t, http.StatusBadRequest,
		HTTPStatus(fmt.Errorf("wrapped: %w", &profile.ValidationError{Field: "email"})))

	invalid := &parser.ParsingError{Kind: parser.KindInvalidResponse, Cause: &profile.ValidationError{Field: "name"}}
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(invalid))
	assert.Equal(t, "parsing_error", errorCode(invalid))
	assert.Equal(t, "scoring_error", errorCode(&scoring.ScoringError{}))
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	h := newTestServer(t, &stubParser{}, ratelimit.NewMemoryStore(ratelimit.Config{PerMinute: 1, Burst: 1}), zap.New(core))

	body := AnalyzeRequest{CVText: "cv", JobDescription: jobText}
	require.Equal(t, http.StatusOK, post(t, h, "/api/analyze", body).Code)

	w := post(t, h, "/api/analyze", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, 1, observed.FilterMessage("rate limit exceeded").Len())

	health := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.10:40000"
	h.ServeHTTP(health, req)
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestRequestIDIsReusedAndLogged(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	h := newTestServer(t, &stubParser{}, nil, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	served := observed.FilterMessage("request served").All()
	require.Len(t, served, 1)
	assert.Equal(t, "abc-123", served[0].ContextMap()["request_id"])
	assert.Equal(t, int64(http.StatusOK), served[0].ContextMap()["status"])
}

func TestRunStopsWithContext(t *testing.T) {
	t.Parallel()

	scorer, err := scoring.New(scoring.Config{}, nil)
	require.NoError(t, err)
	s, err := New(Config{Listen: "127.0.0.1:0"}, Deps{Parser: &stubParser{}, Scorer: scorer}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "server did not stop")
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, Deps{}, nil)
	assert.Error(t, err)
}

type cannedGenerator struct {
	response string
}

func (g cannedGenerator) GenerateContent(context.Context, string, string) (string, error) {
	return g.response, nil
}

func (g cannedGenerator) Model() string { return "canned" }

func TestAnalyzeInvalidModelProfileIsUnprocessable(t *testing.T) {
	t.Parallel()

	p := parser.New(cannedGenerator{response: `{
		"name": "Ann Lee",
		"skills": ["python"],
		"experience": [{"title": "Engineer", "company": "Acme", "duration_months": -1}]
	}`}, parser.Options{}, nil)

	w := post(t, newTestServer(t, p, nil, nil), "/api/analyze", AnalyzeRequest{CVText: "Ann Lee", JobDescription: jobText})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "parsing_error", resp.Error)
	assert.Equal(t, string(parser.KindInvalidResponse), resp.Kind)
	assert.Empty(t, resp.Field, "model-side fields are not reported as request fields")
}
