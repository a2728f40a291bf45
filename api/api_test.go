package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
	"github.com/osr-alliance/backend-lib-leadgen/analyzer"
	"github.com/osr-alliance/backend-lib-leadgen/store"
)

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(ctx context.Context, req leadgen.AnalyzeRequest) (json.RawMessage, error) {
	return nil, errors.New("upstream down")
}

type fixedAnalyzer string

func (f fixedAnalyzer) Analyze(ctx context.Context, req leadgen.AnalyzeRequest) (json.RawMessage, error) {
	return json.RawMessage(f), nil
}

func newTestAPI(t *testing.T, conf *Config) http.Handler {
	t.Helper()
	if conf == nil {
		conf = &Config{}
	}
	if conf.Store == nil {
		conf.Store = store.NewMemory(nil)
	}
	logger, _ := logtest.NewNullLogger()
	conf.Logger = logrus.NewEntry(logger)
	return New(conf)
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func createSession(t *testing.T, h http.Handler) store.Session {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	s := store.Session{}
	decodeBody(t, rec, &s)
	return s
}

func TestHealth(t *testing.T) {
	h := newTestAPI(t, &Config{APIKeys: map[string]string{"k": "admin"}})

	rec := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestAPIKey(t *testing.T) {
	h := newTestAPI(t, &Config{APIKeys: map[string]string{"good": "admin"}})
	body := `{"product":"Acme","audience":"runners"}`

	rec := do(t, h, http.MethodPost, "/api/campaign", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid or missing API key"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/campaign", body, "X-API-Key", "bad")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/campaign", body, "X-API-Key", "good")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	h := newTestAPI(t, &Config{APIKeys: map[string]string{"good": "admin"}, CORSOrigin: "https://app.example.com"})

	// preflight never carries the key
	rec := do(t, h, http.MethodOptions, "/api/campaign", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")

	rec = do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestAPI(t, nil)

	rec := do(t, h, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/campaign", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCampaign(t *testing.T) {
	h := newTestAPI(t, &Config{Analyzer: fixedAnalyzer(`{"recommendation":"Use video","content":["meme","poll"],"metrics":["CTR","ROAS"]}`)})

	rec := do(t, h, http.MethodPost, "/api/campaign", `{"product":" Acme Shoes ","audience":"runners","platform":"Instagram"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := struct {
		Request  leadgen.CampaignRequest `json:"request"`
		Plan     leadgen.CampaignPlan    `json:"plan"`
		Insights json.RawMessage         `json:"insights"`
	}{}
	decodeBody(t, rec, &resp)

	assert.Equal(t, "Acme Shoes", resp.Request.Product)
	assert.Equal(t, "Launch a focused Acme Shoes campaign targeting runners on Instagram.", resp.Plan.Summary)
	assert.Equal(t, "Use video", resp.Plan.Steps[0])
	assert.Equal(t, "Content ideas: meme, poll", resp.Plan.Steps[len(resp.Plan.Steps)-1])
	assert.Equal(t, "CTR, ROAS", resp.Plan.Metrics)
	assert.JSONEq(t, `{"recommendation":"Use video","content":["meme","poll"],"metrics":["CTR","ROAS"]}`, string(resp.Insights))
}

func TestCampaignValidation(t *testing.T) {
	h := newTestAPI(t, nil)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"missing product", `{"audience":"runners"}`, leadgen.ErrEmptyProduct.Error()},
		{"blank audience", `{"product":"Acme","audience":"  "}`, leadgen.ErrEmptyAudience.Error()},
		{"bad json", `{"product":`, "invalid JSON payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/campaign", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.msg)
		})
	}
}

func TestCampaignUpstreamFailure(t *testing.T) {
	h := newTestAPI(t, &Config{Analyzer: failingAnalyzer{}})

	rec := do(t, h, http.MethodPost, "/api/campaign", `{"product":"Acme","audience":"runners"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream down")
}

func TestAnalyze(t *testing.T) {
	h := newTestAPI(t, nil)

	rec := do(t, h, http.MethodPost, "/api/analyze", `{"task":"score","leads":[{"name":"Alex","title":"CEO","annual_revenue":5000000}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := struct {
		Insights []leadgen.TierScore `json:"insights"`
	}{}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Insights, 1)
	assert.Equal(t, 10, resp.Insights[0].ScoreValue)

	rec = do(t, h, http.MethodPost, "/api/analyze", `{"task":"score","leads":[{"company":"nameless"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestAnalyzeServesTheClient(t *testing.T) {
	srv := httptest.NewServer(newTestAPI(t, &Config{APIKeys: map[string]string{"k": "svc"}}))
	defer srv.Close()

	c := analyzer.NewClient(srv.URL, "k")
	require.NoError(t, c.Health(context.Background()))

	cards, err := analyzer.Pitches(context.Background(), c, leadgen.SampleLeads())
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.True(t, strings.HasPrefix(cards[1].Pitch, "Hi Sarah Chen,"))

	_, err = analyzer.NewClient(srv.URL, "wrong").Analyze(context.Background(), leadgen.AnalyzeRequest{Task: "score"})
	assert.ErrorIs(t, err, analyzer.ErrStatus)
	assert.Contains(t, err.Error(), "Invalid or missing API key")
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestAPI(t, nil)
	s := createSession(t, h)
	require.Len(t, s.Lists[leadgen.ListScore], 2)

	rec := do(t, h, http.MethodPost, "/api/sessions/"+s.ID+"/lists/score/leads", `{"name":" Pat Lee ","title":"Account Manager"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	list := listResponse{}
	decodeBody(t, rec, &list)
	require.Len(t, list.Leads, 3)
	assert.Equal(t, leadgen.Lead{
		Name:    "Pat Lee",
		Company: "Pat Lee",
		Title:   "Account Manager",
		Email:   "pat.lee@example.com",
	}, list.Leads[2])

	rec = do(t, h, http.MethodDelete, "/api/sessions/"+s.ID+"/lists/score/leads/0", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &list)
	assert.Len(t, list.Leads, 2)

	rec = do(t, h, http.MethodGet, "/api/sessions/"+s.ID+"/lists/pitch", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	assert.Equal(t, leadgen.ListPitch, list.Kind)
	assert.Len(t, list.Leads, 2)

	rec = do(t, h, http.MethodGet, "/api/sessions/"+s.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	loaded := store.Session{}
	decodeBody(t, rec, &loaded)
	assert.Len(t, loaded.Lists[leadgen.ListScore], 2)
	assert.Len(t, loaded.Lists[leadgen.ListCampaign], 2)

	rec = do(t, h, http.MethodDelete, "/api/sessions/"+s.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/sessions/"+s.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"session not found"}`, rec.Body.String())
}

func TestListErrors(t *testing.T) {
	h := newTestAPI(t, nil)
	s := createSession(t, h)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown kind", http.MethodGet, "/api/sessions/" + s.ID + "/lists/bogus", "", http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/sessions/missing/lists/score", "", http.StatusNotFound},
		{"nameless lead", http.MethodPost, "/api/sessions/" + s.ID + "/lists/score/leads", `{"company":"x"}`, http.StatusBadRequest},
		{"bad lead json", http.MethodPost, "/api/sessions/" + s.ID + "/lists/score/leads", `[`, http.StatusBadRequest},
		{"index out of range", http.MethodDelete, "/api/sessions/" + s.ID + "/lists/score/leads/7", "", http.StatusBadRequest},
		{"negative index", http.MethodDelete, "/api/sessions/" + s.ID + "/lists/score/leads/-1", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestScore(t *testing.T) {
	h := newTestAPI(t, nil)
	s := createSession(t, h)

	rec := do(t, h, http.MethodPost, "/api/sessions/"+s.ID+"/score", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := struct {
		Scores []leadgen.ScoreRow `json:"scores"`
	}{}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Scores, 2)
	assert.Equal(t, "Alex Johnson (10/10)", resp.Scores[0].Label)
	assert.Equal(t, "Sarah Chen (9/10)", resp.Scores[1].Label)

	for i := 0; i < 2; i++ {
		rec = do(t, h, http.MethodDelete, "/api/sessions/"+s.ID+"/lists/score/leads/0", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/sessions/"+s.ID+"/score", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), leadgen.ErrNoLeads.Error())
}

func TestPitch(t *testing.T) {
	h := newTestAPI(t, &Config{Analyzer: fixedAnalyzer(`{"pitches":["first"]}`)})
	s := createSession(t, h)

	rec := do(t, h, http.MethodPost, "/api/sessions/"+s.ID+"/pitch", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := struct {
		Pitches []leadgen.PitchCard `json:"pitches"`
	}{}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Pitches, 2)
	assert.Equal(t, "first", resp.Pitches[0].Pitch)
	assert.Equal(t, "Generated pitch for lead", resp.Pitches[1].Pitch)
	assert.Equal(t, "$2.5M", resp.Pitches[1].Revenue)
}

func TestPitchUpstreamFailure(t *testing.T) {
	h := newTestAPI(t, &Config{Analyzer: failingAnalyzer{}})
	s := createSession(t, h)

	rec := do(t, h, http.MethodPost, "/api/sessions/"+s.ID+"/pitch", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(leadgen.ErrIndexOutOfRange))
	assert.Equal(t, http.StatusNotFound, statusFor(store.ErrSessionNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("db down")))
}
