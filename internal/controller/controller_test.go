package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"invest_edu_backend/internal/config"
	"invest_edu_backend/internal/middleware"
	"invest_edu_backend/internal/model"
	"invest_edu_backend/internal/repository"
	"invest_edu_backend/internal/service"
	"invest_edu_backend/internal/testutil"
	"invest_edu_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const outline = `{"title":"Bond Investing Basics","description":"Intro","estimatedDuration":"2 hours","modules":[
{"title":"What bonds are","lessons":[{"title":"Issuers","contentType":"article","durationMinutes":10},{"title":"Coupons","contentType":"video","durationMinutes":8}]},
{"title":"Risk","lessons":[{"title":"Duration","contentType":"article","durationMinutes":12}]}]}`

// stubAI answers by purpose so one client can serve every route.
type stubAI struct {
	byPurpose map[string]string
	err       error
}

func (s *stubAI) Complete(_ context.Context, _ string, opts service.CompletionOptions) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.byPurpose[opts.Purpose], nil
}

type testEnv struct {
	router  *gin.Engine
	cfg     *config.Config
	content *repository.ContentRepository
	users   *repository.UserRepository
	ai      *stubAI
}

func newTestEnv(t *testing.T, maxRequests int) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "controller-test-secret-0123456789", ExpireTime: time.Hour}}
	env := &testEnv{
		cfg:     cfg,
		content: repository.NewContentRepository(db),
		users:   repository.NewUserRepository(db),
		ai: &stubAI{byPurpose: map[string]string{
			"course_outline": outline,
			"lesson_content": "## Issuers\n\nGovernments and companies issue bonds.\n\n## Key Takeaways\n\n- Issuers borrow",
			"advisor_chat":   "A coupon is the periodic interest a bond pays.",
		}},
	}

	limiter := service.NewMemoryRateLimiter(maxRequests, time.Minute)
	progress := service.NewProgressService(env.content, service.NewMemoryProgressCache(time.Minute))
	courses := NewCourseController(
		service.NewCourseGeneratorService(env.content, env.ai, limiter, 2),
		service.NewCourseService(env.content),
		progress,
	)
	lessons := NewLessonController(service.NewLessonContentService(env.content, env.ai), progress)
	chat := NewChatController(service.NewChatService(repository.NewChatRepository(db), env.ai, limiter))
	auth := NewAuthController(service.NewAuthService(env.users, cfg))

	r := gin.New()
	r.GET("/api/health", NewHealthController(db).HealthCheck)
	r.POST("/api/register", auth.Register)
	r.POST("/api/login", auth.Login)
	r.GET("/api/courses/:id", middleware.TryAuthMiddleware(cfg), courses.GetCourse)
	r.GET("/api/lessons/:id", middleware.TryAuthMiddleware(cfg), lessons.GetLesson)
	g := r.Group("/api", middleware.AuthMiddleware(cfg))
	g.GET("/profile", auth.GetProfile)
	g.GET("/courses", courses.ListMyCourses)
	g.POST("/courses/generate", courses.GenerateCourse)
	g.GET("/courses/:id/progress", courses.GetProgress)
	g.POST("/lessons/:id/complete", lessons.CompleteLesson)
	g.GET("/lessons/:id/status", lessons.GetStatus)
	g.POST("/chat/ask", chat.Ask)
	g.GET("/chat/history", chat.History)
	env.router = r
	return env
}

func (e *testEnv) token(t *testing.T, id uint) string {
	t.Helper()
	tok, err := util.GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: id}, Role: model.Student}, e.cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
	return env
}

func TestCourseFlow_GenerateReadCompleteProgress(t *testing.T) {
	env := newTestEnv(t, 10)
	tok := env.token(t, 1)

	w := env.do(http.MethodPost, "/api/courses/generate", tok, gin.H{"topic": "Bond Investing Basics", "level": "beginner"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var gen model.GenerationResult
	decode(t, w, &gen)
	assert.Zero(t, gen.SkippedItems)

	w = env.do(http.MethodGet, "/api/courses/"+gen.CourseID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var course model.Course
	decode(t, w, &course)
	require.Len(t, course.Modules, 2)
	lessonID := course.Modules[0].Lessons[0].ID

	w = env.do(http.MethodGet, "/api/lessons/"+lessonID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view model.LessonView
	decode(t, w, &view)
	assert.True(t, strings.HasPrefix(view.Content, "## Issuers"))
	assert.Equal(t, "Bond Investing Basics", view.CourseTitle)

	w = env.do(http.MethodPost, "/api/lessons/"+lessonID+"/complete", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/lessons/"+lessonID+"/status", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"completed":true`)

	w = env.do(http.MethodGet, "/api/courses/"+gen.CourseID+"/progress", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary model.ProgressSummary
	decode(t, w, &summary)
	assert.Equal(t, 33, summary.PercentComplete)
	assert.Equal(t, 3, summary.TotalLessons)
	assert.Contains(t, summary.Badges, model.BadgeFirstLesson)
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t, 1)
	tok := env.token(t, 2)

	w := env.do(http.MethodPost, "/api/courses/generate", "", gin.H{"topic": "Bonds", "level": "beginner"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/courses/generate", tok, gin.H{"topic": "Bonds", "level": "expert"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/courses/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/lessons/"+model.GenerateUUID(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/api/courses/generate", tok, gin.H{"topic": "Bonds", "level": "beginner"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/api/courses/generate", tok, gin.H{"topic": "Bonds", "level": "beginner"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"retryAfterSeconds":60`)
}

func TestErrorMapping_GenerationFailures(t *testing.T) {
	env := newTestEnv(t, 10)
	tok := env.token(t, 3)

	env.ai.byPurpose["course_outline"] = "I could not produce JSON today."
	w := env.do(http.MethodPost, "/api/courses/generate", tok, gin.H{"topic": "Bonds", "level": "beginner"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	env.ai.err = errors.New("upstream timeout")
	w = env.do(http.MethodPost, "/api/chat/ask", tok, gin.H{"question": "What is a coupon?"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestChatAndAuthRoutes(t *testing.T) {
	env := newTestEnv(t, 10)

	w := env.do(http.MethodPost, "/api/register", "", gin.H{"name": "Lin", "email": "lin@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/api/register", "", gin.H{"name": "Lin", "email": "lin@example.com", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/api/login", "", gin.H{"email": "lin@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/login", "", gin.H{"email": "lin@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)
	require.NotEmpty(t, login.Token)

	w = env.do(http.MethodPost, "/api/chat/ask", login.Token, gin.H{"question": "What is a coupon?"})
	require.Equal(t, http.StatusOK, w.Code)
	var reply service.ChatReply
	decode(t, w, &reply)
	assert.True(t, reply.Compliant)
	assert.True(t, strings.HasPrefix(reply.Answer, "A coupon is"))

	w = env.do(http.MethodGet, "/api/chat/history", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []model.ChatMessage
	decode(t, w, &history)
	assert.Len(t, history, 2)

	w = env.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfileAndMyCourses(t *testing.T) {
	env := newTestEnv(t, 10)

	w := env.do(http.MethodPost, "/api/register", "", gin.H{"name": "Mia", "email": "Mia@Example.com", "password": "long-enough"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(http.MethodPost, "/api/login", "", gin.H{"email": "mia@example.com", "password": "long-enough"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	decode(t, w, &login)

	w = env.do(http.MethodGet, "/api/profile", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile model.User
	decode(t, w, &profile)
	assert.Equal(t, "mia@example.com", profile.Email)
	assert.NotContains(t, w.Body.String(), "long-enough")

	w = env.do(http.MethodPost, "/api/courses/generate", login.Token, gin.H{"topic": "Bonds", "level": "beginner"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(http.MethodPost, "/api/courses/generate", env.token(t, login.User.ID+100), gin.H{"topic": "Bonds", "level": "beginner"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodGet, "/api/courses", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []model.Course
	decode(t, w, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, "Bond Investing Basics", mine[0].Title)

	w = env.do(http.MethodGet, "/api/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
