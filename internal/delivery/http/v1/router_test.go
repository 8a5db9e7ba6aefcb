package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"swiftjobs-backend/config"
	v1 "swiftjobs-backend/internal/delivery/http/v1"
	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/negotiation"
	"swiftjobs-backend/internal/notify"
	"swiftjobs-backend/internal/repository/memory"
	"swiftjobs-backend/internal/scoring"
	"swiftjobs-backend/internal/usecase"
	"swiftjobs-backend/pkg/auth"
	"swiftjobs-backend/pkg/llm"
	"swiftjobs-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// wordEmbedder puts a 1 in the slot of every known word it sees.
type wordEmbedder struct{}

func (wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	words := []string{"go", "postgres", "react"}
	vec := []float32{0.1, 0.1, 0.1}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		for i, known := range words {
			if strings.Trim(w, ".,:") == known {
				vec[i]++
			}
		}
	}
	return vec, nil
}

// replayGenerator returns replies in order, repeating the last one.
type replayGenerator struct {
	mu      sync.Mutex
	replies []string
	err     error
	n       int
}

func (g *replayGenerator) Generate(context.Context, llm.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	idx := g.n
	if idx >= len(g.replies) {
		idx = len(g.replies) - 1
	}
	g.n++
	return g.replies[idx], nil
}

type testServer struct {
	router *gin.Engine
	store  *memory.Store
	gen    *replayGenerator
}

func newServer(t *testing.T, verifier *auth.Verifier) *testServer {
	t.Helper()
	store := memory.NewStore()
	scorer, err := scoring.NewScorer(scoring.DefaultWeights())
	require.NoError(t, err)
	gen := &replayGenerator{replies: []string{"Solid overlap."}}
	engine, err := negotiation.NewEngine(gen, negotiation.DefaultConfig(), nil)
	require.NoError(t, err)
	log := zap.NewNop()
	emb := wordEmbedder{}

	router := v1.NewRouter(v1.RouterDeps{
		ProfileUC: usecase.NewProfileUsecase(store.Profiles(), emb, log),
		JobUC:     usecase.NewJobUsecase(store.Jobs(), store.Profiles(), scorer, emb, log),
		SwipeUC: usecase.NewSwipeUsecase(usecase.SwipeDeps{
			Swipes:   store.Swipes(),
			Matches:  store.Matches(),
			Jobs:     store.Jobs(),
			Profiles: store.Profiles(),
			Scorer:   scorer,
			Notifier: notify.NewLogNotifier(log),
			Log:      log,
		}),
		MatchUC: usecase.NewMatchUsecase(store.Profiles(), store.Jobs(), scorer, emb, gen, log),
		NegotiationUC: usecase.NewNegotiationUsecase(usecase.NegotiationDeps{
			Sessions: store.Negotiations(),
			Profiles: store.Profiles(),
			Jobs:     store.Jobs(),
			Scorer:   scorer,
			Engine:   engine,
			Log:      log,
		}),
		HealthUC: usecase.NewHealthUsecase(nil),
		Verifier: verifier,
		Metrics:  metrics.NewCollector("test"),
		Config:   &config.Config{FrontendURL: "http://localhost:3000"},
		Log:      log,
	})
	return &testServer{router: router, store: store, gen: gen}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

// seed creates applicant a1, employer e1 and one job owned by e1.
func (s *testServer) seed(t *testing.T) string {
	t.Helper()
	code, _ := s.do(t, http.MethodPut, "/v1/profiles/a1", gin.H{
		"role": "applicant", "full_name": "Ana", "resume_text": "Go postgres developer",
		"skills": []string{"Go", "Postgres"}, "salary_expectation": 5500,
	}, "")
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodPut, "/v1/profiles/e1", gin.H{"role": "hr", "full_name": "Acme"}, "")
	require.Equal(t, http.StatusOK, code)

	code, env := s.do(t, http.MethodPost, "/v1/jobs", gin.H{
		"owner_id": "e1", "title": "Backend engineer", "description": "Go postgres services",
		"requirements": []string{"Go", "Postgres"}, "budget_min": 4000, "budget_max": 5000,
	}, "")
	require.Equal(t, http.StatusCreated, code)
	var job domain.Job
	require.NoError(t, json.Unmarshal(env.Data, &job))
	require.NotEmpty(t, job.ID)
	assert.True(t, job.HasEmbedding)
	return job.ID
}

func TestSwipe_MutualLikeReturnsMatch(t *testing.T) {
	s := newServer(t, nil)
	jobID := s.seed(t)

	code, env := s.do(t, http.MethodPost, "/v1/swipe", gin.H{
		"userId": "a1", "targetId": jobID, "action": "like", "userRole": "applicant",
	}, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"created":true,"isMatch":false}`, string(env.Data))

	code, env = s.do(t, http.MethodPost, "/v1/swipe", gin.H{
		"userId": "e1", "targetId": "a1", "action": "LIKE", "userRole": "hr", "jobId": jobID,
	}, "")
	require.Equal(t, http.StatusOK, code)
	var res struct {
		IsMatch bool   `json:"isMatch"`
		MatchID string `json:"matchId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.IsMatch)
	assert.NotEmpty(t, res.MatchID)

	code, env = s.do(t, http.MethodGet, "/v1/swipes/state?applicant_id=a1&job_id="+jobID, nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"state":"MATCHED"`)

	code, env = s.do(t, http.MethodGet, "/v1/matches?job_id="+jobID, nil, "")
	require.Equal(t, http.StatusOK, code)
	var matches []domain.Match
	require.NoError(t, json.Unmarshal(env.Data, &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, res.MatchID, matches[0].ID)
	require.NotNil(t, matches[0].MatchScore)
}

func TestSwipe_ValidationErrorsUseWireNames(t *testing.T) {
	s := newServer(t, nil)
	s.seed(t)

	code, env := s.do(t, http.MethodPost, "/v1/swipe", gin.H{"userId": "a1", "targetId": "x", "action": "superlike"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "action must be like or dislike")
	assert.Contains(t, env.Message, "userRole is required")

	code, env = s.do(t, http.MethodPost, "/v1/swipe", gin.H{
		"userId": "a1", "targetId": "no-such-job", "action": "like", "userRole": "applicant",
	}, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `"not_found"`, string(env.Error))
}

func TestListMatches_RequiresFilter(t *testing.T) {
	s := newServer(t, nil)
	code, _ := s.do(t, http.MethodGet, "/v1/matches", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMatchScore_CamelCaseResponse(t *testing.T) {
	s := newServer(t, nil)
	jobID := s.seed(t)

	code, env := s.do(t, http.MethodPost, "/v1/match/score", gin.H{"applicantId": "a1", "jobId": jobID}, "")
	require.Equal(t, http.StatusOK, code)

	var score map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &score))
	assert.EqualValues(t, 100, score["score"])
	assert.Equal(t, "Solid overlap.", score["explanation"])
	assert.Equal(t, []any{"Go", "Postgres"}, score["matchedSkills"])
	assert.Contains(t, score, "missingSkills")
	assert.Contains(t, score, "embeddingScore")
}

func TestRecommendedJobs(t *testing.T) {
	s := newServer(t, nil)
	jobID := s.seed(t)

	code, env := s.do(t, http.MethodGet, "/v1/jobs/recommended?applicant_id=a1", nil, "")
	require.Equal(t, http.StatusOK, code)
	var recs []domain.JobRecommendation
	require.NoError(t, json.Unmarshal(env.Data, &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, jobID, recs[0].Job.ID)

	code, _ = s.do(t, http.MethodGet, "/v1/jobs/recommended?applicant_id=a1&limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestJobCandidates(t *testing.T) {
	s := newServer(t, nil)
	jobID := s.seed(t)
	path := "/v1/jobs/" + jobID + "/candidates?owner_id=e1"

	code, env := s.do(t, http.MethodGet, path+"&min_score=50", nil, "")
	require.Equal(t, http.StatusOK, code)
	var recs []domain.CandidateRecommendation
	require.NoError(t, json.Unmarshal(env.Data, &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "a1", recs[0].Profile.ID)
	assert.Equal(t, 100, recs[0].Score)

	code, _ = s.do(t, http.MethodGet, "/v1/jobs/"+jobID+"/candidates?owner_id=a1", nil, "")
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodGet, path+"&min_score=high", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/v1/swipe", gin.H{
		"userId": "e1", "targetId": "a1", "action": "dislike", "userRole": "employer", "jobId": jobID,
	}, "")
	require.Equal(t, http.StatusOK, code)
	code, env = s.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestNegotiate_HiredAndStored(t *testing.T) {
	s := newServer(t, nil)
	jobID := s.seed(t)
	s.gen.replies = []string{
		`{"message":"We can offer $5,000 a month.","offer":5000,"decision":"none"}`,
		`{"message":"Deal.","offer":5000,"decision":"accept"}`,
	}

	code, env := s.do(t, http.MethodPost, "/v1/negotiate", gin.H{"sessionId": "s1", "candidateId": "a1", "jobId": jobID}, "")
	require.Equal(t, http.StatusOK, code, env.Message)

	var res map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "s1", res["sessionId"])
	assert.Equal(t, "HIRED", res["status"])
	assert.Equal(t, "AGREED", res["sessionStatus"])
	assert.EqualValues(t, 5000, res["agreedSalary"])
	assert.Len(t, res["log"], 2)

	code, again := s.do(t, http.MethodGet, "/v1/negotiations/s1", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, string(env.Data), string(again.Data))

	code, _ = s.do(t, http.MethodPost, "/v1/negotiations/s1/cancel", nil, "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestNegotiate_FailureKeepsTranscript(t *testing.T) {
	s := newServer(t, nil)
	jobID := s.seed(t)
	s.gen.err = errors.New("upstream unavailable")

	code, env := s.do(t, http.MethodPost, "/v1/negotiate", gin.H{"sessionId": "s2", "candidateId": "a1", "jobId": jobID}, "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.False(t, env.Success)
	assert.JSONEq(t, `"external_service"`, string(env.Error))

	var res map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "FAILED", res["sessionStatus"])
	assert.Nil(t, res["score"])
	assert.NotEmpty(t, res["error"])
}

func TestNegotiate_BindingErrors(t *testing.T) {
	s := newServer(t, nil)

	code, env := s.do(t, http.MethodPost, "/v1/negotiate", gin.H{"jobId": "j", "employerBudget": -1}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "candidateId is required")
	assert.Contains(t, env.Message, "employerBudget must be greater than 0")

	code, _ = s.do(t, http.MethodGet, "/v1/negotiations/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAuth_CallerMustBeActor(t *testing.T) {
	s := newServer(t, auth.NewVerifier("s3cret", ""))
	token := func(sub string) string {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": sub, "exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("s3cret"))
		require.NoError(t, err)
		return signed
	}

	code, _ := s.do(t, http.MethodPut, "/v1/profiles/a1", gin.H{"role": "applicant"}, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPut, "/v1/profiles/a1", gin.H{"role": "applicant"}, token("someone-else"))
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPut, "/v1/profiles/a1", gin.H{"role": "applicant", "resume_text": "Go"}, token("a1"))
	assert.Equal(t, http.StatusOK, code)

	// health stays public
	code, _ = s.do(t, http.MethodGet, "/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestSystemRoutes(t *testing.T) {
	s := newServer(t, nil)

	code, env := s.do(t, http.MethodGet, "/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, _ = s.do(t, http.MethodGet, "/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
