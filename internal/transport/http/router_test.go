package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quizhub-service/internal/app"
	"quizhub-service/internal/auth"
	"quizhub-service/internal/infra/memory"
)

type apiResponse struct {
	Success     bool            `json:"success"`
	Data        json.RawMessage `json:"data"`
	Count       *int            `json:"count"`
	Message     string          `json:"message"`
	AccessToken string          `json:"accessToken"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	answerKeys := memory.NewAnswerKeyCache(memory.NewStoreLoader(store), time.Minute)
	feeds := memory.NewFeedRegistry()

	tokens, err := auth.NewTokenManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	router := NewRouter(RouterConfig{
		Auth:        app.NewAuthService(store, tokens, memory.NewTokenStore(), auth.NewBcryptHasher(4)),
		Quizzes:     app.NewQuizService(store, answerKeys),
		Submissions: app.NewSubmissionService(store, answerKeys, feeds),
		Logger:      log,
		Environment: "test",
		CORSOrigin:  "http://localhost:5173",
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func register(t *testing.T, srv *httptest.Server, name, role string) string {
	t.Helper()
	status, resp := call(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    strings.ToLower(name) + "@example.com",
		"password": "password123",
		"role":     role,
	})
	if status != http.StatusCreated || resp.AccessToken == "" {
		t.Fatalf("register %s: status %d, %+v", name, status, resp)
	}
	return resp.AccessToken
}

// publishedQuiz creates a quiz with one single-choice question and publishes it.
func publishedQuiz(t *testing.T, srv *httptest.Server, teacher string) (quizID, questionID string) {
	t.Helper()
	status, resp := call(t, srv, http.MethodPost, "/api/quizzes", teacher, map[string]interface{}{
		"title":     "Go basics",
		"timeLimit": 10,
	})
	if status != http.StatusCreated {
		t.Fatalf("create quiz: status %d, %s", status, resp.Message)
	}
	var quiz struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(resp.Data, &quiz)

	status, resp = call(t, srv, http.MethodPost, "/api/quizzes/"+quiz.ID+"/questions", teacher, map[string]interface{}{
		"questionText": "Which keyword starts a goroutine?",
		"choices": []map[string]interface{}{
			{"text": "go", "isCorrect": true},
			{"text": "defer", "isCorrect": true},
			{"text": "async", "isCorrect": false},
		},
		"points": 2,
	})
	if status != http.StatusCreated {
		t.Fatalf("add question: status %d, %s", status, resp.Message)
	}
	var question struct {
		ID      string `json:"id"`
		Choices []struct {
			IsCorrect bool `json:"isCorrect"`
		} `json:"choices"`
	}
	_ = json.Unmarshal(resp.Data, &question)
	if !question.Choices[0].IsCorrect || question.Choices[1].IsCorrect {
		t.Fatalf("expected single-choice normalization to keep only the first correct choice, got %+v", question.Choices)
	}

	if status, resp = call(t, srv, http.MethodPut, "/api/quizzes/"+quiz.ID+"/publish", teacher, nil); status != http.StatusOK {
		t.Fatalf("publish: status %d, %s", status, resp.Message)
	}
	return quiz.ID, question.ID
}

func submit(t *testing.T, srv *httptest.Server, student, quizID, questionID string, choice int) (int, apiResponse) {
	t.Helper()
	return call(t, srv, http.MethodPost, "/api/quizzes/"+quizID+"/submit", student, map[string]interface{}{
		"answers":   []map[string]interface{}{{"questionId": questionID, "selectedChoices": []int{choice}}},
		"startedAt": time.Now().Add(-time.Minute).UTC().Format(time.RFC3339),
	})
}

func TestHealthAndNotFound(t *testing.T) {
	srv := newTestServer(t)

	status, resp := call(t, srv, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK || !resp.Success {
		t.Fatalf("health: status %d, %+v", status, resp)
	}

	status, resp = call(t, srv, http.MethodGet, "/api/nope", "", nil)
	if status != http.StatusNotFound || resp.Message != "route not found: /api/nope" {
		t.Fatalf("not found: status %d, %+v", status, resp)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	status, resp := call(t, srv, http.MethodGet, "/api/quizzes", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", status, resp.Message)
	}
	status, _ = call(t, srv, http.MethodGet, "/api/quizzes", "garbage", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", status)
	}
}

func TestQuizSubmissionFlow(t *testing.T) {
	srv := newTestServer(t)
	teacher := register(t, srv, "Tina", "teacher")
	student := register(t, srv, "Sam", "student")

	quizID, questionID := publishedQuiz(t, srv, teacher)

	status, resp := call(t, srv, http.MethodGet, "/api/quizzes", student, nil)
	if status != http.StatusOK || resp.Count == nil || *resp.Count != 1 {
		t.Fatalf("list quizzes: status %d, %+v", status, resp)
	}
	var list []struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(resp.Data, &list)
	if list[0].Status != "published" {
		t.Fatalf("expected published status, got %q", list[0].Status)
	}

	status, resp = call(t, srv, http.MethodGet, "/api/quizzes/"+quizID, student, nil)
	if status != http.StatusOK || strings.Contains(string(resp.Data), "isCorrect") {
		t.Fatalf("student must not see the answer key: status %d, %s", status, resp.Data)
	}
	status, resp = call(t, srv, http.MethodGet, "/api/quizzes/"+quizID+"/questions", student, nil)
	if status != http.StatusOK || strings.Contains(string(resp.Data), "isCorrect") {
		t.Fatalf("student question list must omit isCorrect: status %d, %s", status, resp.Data)
	}
	status, resp = call(t, srv, http.MethodGet, "/api/quizzes/"+quizID, teacher, nil)
	if status != http.StatusOK || !strings.Contains(string(resp.Data), `"isCorrect":false`) {
		t.Fatalf("owner must see the full answer key: status %d, %s", status, resp.Data)
	}

	status, resp = submit(t, srv, student, quizID, questionID, 0)
	if status != http.StatusCreated {
		t.Fatalf("submit: status %d, %s", status, resp.Message)
	}
	var result struct {
		Score      int `json:"score"`
		MaxScore   int `json:"maxScore"`
		Percentage int `json:"percentage"`
	}
	_ = json.Unmarshal(resp.Data, &result)
	if result.Score != 2 || result.MaxScore != 2 || result.Percentage != 100 {
		t.Fatalf("unexpected result %+v", result)
	}

	status, resp = submit(t, srv, student, quizID, questionID, 0)
	if status != http.StatusBadRequest || resp.Message != "you have already submitted this quiz" {
		t.Fatalf("duplicate submit: status %d, %+v", status, resp)
	}

	status, resp = call(t, srv, http.MethodGet, "/api/quizzes/"+quizID+"/results", student, nil)
	if status != http.StatusForbidden || resp.Message != "user role student is not authorized to access this route" {
		t.Fatalf("student results: status %d, %+v", status, resp)
	}

	status, resp = call(t, srv, http.MethodGet, "/api/quizzes/"+quizID+"/results", teacher, nil)
	if status != http.StatusOK {
		t.Fatalf("results: status %d, %s", status, resp.Message)
	}
	var results struct {
		Stats struct {
			Count        int `json:"count"`
			HighestScore int `json:"highestScore"`
		} `json:"stats"`
	}
	_ = json.Unmarshal(resp.Data, &results)
	if results.Stats.Count != 1 || results.Stats.HighestScore != 2 {
		t.Fatalf("unexpected stats %+v", results.Stats)
	}

	status, resp = call(t, srv, http.MethodGet, "/api/submissions", student, nil)
	if status != http.StatusOK || resp.Count == nil || *resp.Count != 1 {
		t.Fatalf("my submissions: status %d, %+v", status, resp)
	}
}

func TestPublishedQuizRejectsNewQuestions(t *testing.T) {
	srv := newTestServer(t)
	teacher := register(t, srv, "Tina", "teacher")
	quizID, _ := publishedQuiz(t, srv, teacher)

	status, resp := call(t, srv, http.MethodPost, "/api/quizzes/"+quizID+"/questions", teacher, map[string]interface{}{
		"questionText": "Late question",
		"choices": []map[string]interface{}{
			{"text": "a", "isCorrect": true},
			{"text": "b", "isCorrect": false},
		},
	})
	if status != http.StatusBadRequest || resp.Message != "cannot add questions to a published quiz" {
		t.Fatalf("status %d, %+v", status, resp)
	}
}

func TestValidationMessages(t *testing.T) {
	srv := newTestServer(t)
	teacher := register(t, srv, "Tina", "teacher")

	status, resp := call(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Bad", "email": "not-an-email", "password": "password123",
	})
	if status != http.StatusBadRequest || resp.Message != "please include a valid email" {
		t.Fatalf("register: status %d, %+v", status, resp)
	}

	status, resp = call(t, srv, http.MethodPost, "/api/quizzes", teacher, map[string]interface{}{"title": ""})
	if status != http.StatusBadRequest || !strings.HasPrefix(resp.Message, "title is required") {
		t.Fatalf("create quiz: status %d, %+v", status, resp)
	}

	_, resp = call(t, srv, http.MethodPost, "/api/quizzes", teacher, map[string]interface{}{"title": "Draft"})
	var quiz struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(resp.Data, &quiz)

	status, resp = call(t, srv, http.MethodPost, "/api/quizzes/"+quiz.ID+"/questions", teacher, map[string]interface{}{
		"questionText": "Only one choice",
		"choices":      []map[string]interface{}{{"text": "a", "isCorrect": true}},
	})
	if status != http.StatusBadRequest || resp.Message != "question must have at least 2 choices" {
		t.Fatalf("add question: status %d, %+v", status, resp)
	}

	status, resp = call(t, srv, http.MethodPut, "/api/quizzes/"+quiz.ID+"/publish", teacher, nil)
	if status != http.StatusBadRequest || resp.Message != "cannot publish a quiz without questions" {
		t.Fatalf("publish empty: status %d, %+v", status, resp)
	}

	status, _ = call(t, srv, http.MethodGet, "/api/quizzes/not-a-uuid", teacher, nil)
	if status != http.StatusNotFound {
		t.Fatalf("malformed id: expected 404, got %d", status)
	}
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	srv := newTestServer(t)
	teacher := register(t, srv, "Tina", "teacher")

	if status, resp := call(t, srv, http.MethodGet, "/api/auth/me", teacher, nil); status != http.StatusOK {
		t.Fatalf("me: status %d, %s", status, resp.Message)
	}
	if status, resp := call(t, srv, http.MethodGet, "/api/auth/logout", teacher, nil); status != http.StatusOK {
		t.Fatalf("logout: status %d, %s", status, resp.Message)
	}
	if status, _ := call(t, srv, http.MethodGet, "/api/auth/me", teacher, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", status)
	}
}

func TestResultsLiveStream(t *testing.T) {
	srv := newTestServer(t)
	teacher := register(t, srv, "Tina", "teacher")
	student := register(t, srv, "Sam", "student")
	quizID, questionID := publishedQuiz(t, srv, teacher)

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/quizzes/" + quizID + "/results/live?token=" + teacher
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if stats := readStats(t, conn); stats.Count != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", stats)
	}

	if status, resp := submit(t, srv, student, quizID, questionID, 2); status != http.StatusCreated {
		t.Fatalf("submit: status %d, %s", status, resp.Message)
	}

	stats := readStats(t, conn)
	if stats.Count != 1 || stats.HighestScore != 0 || stats.LowestScore != 0 {
		t.Fatalf("unexpected live stats %+v", stats)
	}
}

type liveStats struct {
	Count        int `json:"count"`
	HighestScore int `json:"highestScore"`
	LowestScore  int `json:"lowestScore"`
}

func readStats(t *testing.T, conn *websocket.Conn) liveStats {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg outboundMessage[liveStats]
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "stats" {
		t.Fatalf("expected stats frame, got %q", msg.Type)
	}
	return msg.Payload
}
