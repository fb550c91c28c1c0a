package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/EthanMiao/manaboo/internal/controller"
	"github.com/EthanMiao/manaboo/internal/middleware"
	"github.com/EthanMiao/manaboo/internal/repository"
	"github.com/EthanMiao/manaboo/internal/service"
	"github.com/EthanMiao/manaboo/internal/testutil"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T, gen service.Generator) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	grammarRepo := repository.NewGrammarRepository(db, nil, 0)
	exerciseRepo := repository.NewExerciseRepository(db)
	mistakeRepo := repository.NewMistakeRepository(db)
	proficiencyRepo := repository.NewProficiencyRepository(db)
	dialogueRepo := repository.NewDialogueRepository(db)
	statRepo := repository.NewStudyStatRepository(db)

	proficiency := service.NewProficiencyService(db, grammarRepo, proficiencyRepo, mistakeRepo, statRepo)
	grammar := controller.NewGrammarController(
		service.NewGrammarService(db, grammarRepo, exerciseRepo, mistakeRepo, proficiencyRepo, proficiency, gen))
	recommend := controller.NewRecommendationController(
		service.NewRecommendationService(proficiencyRepo, mistakeRepo))
	dialogue := controller.NewDialogueController(
		service.NewDialogueService(db, dialogueRepo, statRepo, gen))
	stats := controller.NewStatsController(
		service.NewStatsService(statRepo, proficiencyRepo, mistakeRepo, dialogueRepo, nil, false))
	health := controller.NewHealthController(db, nil)

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.UserMiddleware(""))
	api.GET("/health", health.HealthCheck)
	api.GET("/grammar/list", grammar.ListGrammar)
	api.GET("/grammar/:id", grammar.GetGrammar)
	api.POST("/exercise/generate", grammar.GenerateExercises)
	api.POST("/exercise/submit", grammar.SubmitAnswer)
	api.GET("/mistakes", grammar.ListMistakes)
	api.GET("/mistakes/detail", grammar.GetMistake)
	api.GET("/proficiency/:grammarId", grammar.GetProficiency)
	api.GET("/recommendations/grammar", recommend.RecommendGrammar)
	api.GET("/scenarios", dialogue.ListScenarios)
	api.POST("/dialogue/send", dialogue.Send)
	api.POST("/dialogue/correct", dialogue.Correct)
	api.GET("/dialogue/history/:sessionId", dialogue.GetHistory)
	api.DELETE("/dialogue/session/:sessionId", dialogue.DeleteSession)
	api.GET("/stats/weekly", stats.Weekly)
	api.GET("/stats/summary", stats.Summary)
	api.GET("/stats/export", stats.Export)

	return &testServer{router: r, db: db}
}

func (s *testServer) do(t *testing.T, method, target, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// decode 校验状态码后把 data 解到 out
func decode(t *testing.T, w *httptest.ResponseRecorder, status int, out interface{}) envelope {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, status, env.Code)
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, nil)

	var data struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/health", "", nil), http.StatusOK, &data)
	require.Equal(t, "ok", data.Status)
	require.Equal(t, "up", data.Components["database"])
	require.NotContains(t, data.Components, "redis")
}
