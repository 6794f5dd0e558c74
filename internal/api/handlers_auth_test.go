// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/citystroll/citystroll/internal/auth"
	"github.com/citystroll/citystroll/internal/cache"
	"github.com/citystroll/citystroll/internal/captcha"
	"github.com/citystroll/citystroll/internal/database"
	"github.com/citystroll/citystroll/internal/models"
)

// fakeUsers is an in-memory UserStore.
type fakeUsers struct {
	byEmail map[string]models.User
	nextID  int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: make(map[string]models.User), nextID: 1}
}

func (f *fakeUsers) Create(_ context.Context, email, passwordHash, fullName string) (models.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return models.User{}, database.ErrAlreadyExists
	}
	u := models.User{
		ID:           f.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    time.Now(),
	}
	f.nextID++
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return models.User{}, database.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, database.ErrNotFound
}

func (f *fakeUsers) EmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	u, ok := f.byEmail[email]
	return ok && u.ID != excludeID, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id int64, email, fullName, profilePicURL string) (models.User, error) {
	for old, u := range f.byEmail {
		if u.ID == id {
			delete(f.byEmail, old)
			u.Email = email
			u.FullName = fullName
			u.ProfilePicURL = profilePicURL
			u.UpdatedAt = time.Now()
			f.byEmail[email] = u
			return u, nil
		}
	}
	return models.User{}, database.ErrNotFound
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	for email, u := range f.byEmail {
		if u.ID == id {
			u.PasswordHash = passwordHash
			f.byEmail[email] = u
			return nil
		}
	}
	return database.ErrNotFound
}

// authFixture wires a Handler with real gate components over fakes.
type authFixture struct {
	handler *Handler
	users   *fakeUsers
	clock   *cache.FakeClock
	tracker *auth.Tracker
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	clock := cache.NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	users := newFakeUsers()

	tracker := auth.NewTracker(cache.New(clock), auth.DefaultTrackerConfig())
	captchas := captcha.NewStore(cache.New(clock), 0)

	tokens, err := auth.NewJWTManager("test-secret-key", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	handler := NewHandler(HandlerConfig{
		Users:    users,
		Captchas: captchas,
		Tracker:  tracker,
		Tokens:   tokens,
		Dev:      true,
	})

	return &authFixture{handler: handler, users: users, clock: clock, tracker: tracker}
}

func (f *authFixture) register(t *testing.T, email, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if _, err := f.users.Create(context.Background(), email, hash, "Test User"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any, ip string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = ip + ":51234"
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

// solveCaptcha computes the answer from the challenge text
// "Solve: a op b = ?".
func solveCaptcha(t *testing.T, text string) string {
	t.Helper()
	expr := strings.TrimSuffix(strings.TrimPrefix(text, "Solve: "), " = ?")
	var a, b int
	var op string
	if _, err := fmt.Sscanf(expr, "%d %s %d", &a, &op, &b); err != nil {
		t.Fatalf("parse challenge %q: %v", text, err)
	}
	switch op {
	case "+":
		return fmt.Sprintf("%d", a+b)
	case "-":
		return fmt.Sprintf("%d", a-b)
	case "*":
		return fmt.Sprintf("%d", a*b)
	}
	t.Fatalf("unknown operator %q", op)
	return ""
}

func TestCaptchaEndpoint(t *testing.T) {
	f := newAuthFixture(t)

	w := postJSON(t, f.handler.Captcha, nil, "10.0.0.1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeBody(t, w)
	if body["success"] != true {
		t.Error("success = false, want true")
	}
	c, ok := body["captcha"].(map[string]any)
	if !ok {
		t.Fatalf("captcha field missing: %v", body)
	}
	id, _ := c["id"].(string)
	if !strings.HasPrefix(id, "captcha_") {
		t.Errorf("captcha id = %q, want captcha_ prefix", id)
	}
	text, _ := c["text"].(string)
	if !strings.HasPrefix(text, "Solve: ") {
		t.Errorf("captcha text = %q, want Solve: prefix", text)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)

	w := postJSON(t, f.handler.Register, registerRequest{
		Email:    "anna@example.com",
		Password: "secret123",
		FullName: "Анна Петрова",
	}, "10.0.0.1")
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["token"] == "" || body["token"] == nil {
		t.Error("register returned no token")
	}

	w = postJSON(t, f.handler.Login, loginRequest{
		Email:    "anna@example.com",
		Password: "secret123",
	}, "10.0.0.1")
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	body = decodeBody(t, w)
	if body["success"] != true {
		t.Error("login success = false")
	}
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatal("login returned no user")
	}
	if _, hasHash := user["password_hash"]; hasHash {
		t.Error("password hash leaked in login response")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "taken@example.com", "secret123")

	w := postJSON(t, f.handler.Register, registerRequest{
		Email:    "taken@example.com",
		Password: "secret123",
		FullName: "Другой Пользователь",
	}, "10.0.0.1")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestLoginGenericErrorForUnknownAndWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "known@example.com", "correct-horse")

	unknown := postJSON(t, f.handler.Login, loginRequest{
		Email: "ghost@example.com", Password: "whatever1",
	}, "10.0.0.1")
	wrong := postJSON(t, f.handler.Login, loginRequest{
		Email: "known@example.com", Password: "not-the-password",
	}, "10.0.0.1")

	if unknown.Code != http.StatusUnauthorized || wrong.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want 401, 401", unknown.Code, wrong.Code)
	}

	ub := decodeBody(t, unknown)
	wb := decodeBody(t, wrong)
	if ub["error"] != wb["error"] {
		t.Errorf("error messages differ: %q vs %q, account existence leaks", ub["error"], wb["error"])
	}
	if ub["remainingAttempts"] != float64(4) {
		t.Errorf("remainingAttempts = %v, want 4", ub["remainingAttempts"])
	}
}

func TestLoginCaptchaEscalation(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "anna@example.com", "correct-horse")

	// Three failures cross the captcha threshold.
	for i := 0; i < 3; i++ {
		w := postJSON(t, f.handler.Login, loginRequest{
			Email: "anna@example.com", Password: "wrong-password",
		}, "10.0.0.1")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i+1, w.Code)
		}
	}

	// The fourth attempt is rejected before credentials are checked,
	// even with the correct password.
	w := postJSON(t, f.handler.Login, loginRequest{
		Email: "anna@example.com", Password: "correct-horse",
	}, "10.0.0.1")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 captcha gate", w.Code)
	}
	body := decodeBody(t, w)
	if body["captchaRequired"] != true {
		t.Fatal("captchaRequired missing on gated login")
	}
	c, ok := body["captcha"].(map[string]any)
	if !ok {
		t.Fatal("gated login returned no challenge")
	}

	// Wrong captcha answer counts as another failure and consumes the
	// challenge, even alongside the correct password.
	id, _ := c["id"].(string)
	w = postJSON(t, f.handler.Login, loginRequest{
		Email: "anna@example.com", Password: "correct-horse",
		CaptchaID: id, CaptchaAnswer: "99999",
	}, "10.0.0.1")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong captcha status = %d, want 400", w.Code)
	}
	body = decodeBody(t, w)
	if body["captchaRequired"] != true {
		t.Error("captchaRequired missing after failed captcha")
	}
	if got := f.tracker.RemainingAttempts("10.0.0.1", "anna@example.com"); got != 1 {
		t.Errorf("remaining attempts = %d, want 1", got)
	}

	// A consumed challenge cannot be replayed with the right answer.
	w = postJSON(t, f.handler.Login, loginRequest{
		Email: "anna@example.com", Password: "correct-horse",
		CaptchaID: id, CaptchaAnswer: "7",
	}, "10.0.0.1")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("replayed captcha status = %d, want 400", w.Code)
	}
}

func TestLoginCaptchaSolveThenSuccess(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "anna@example.com", "correct-horse")

	for i := 0; i < 3; i++ {
		postJSON(t, f.handler.Login, loginRequest{
			Email: "anna@example.com", Password: "wrong-password",
		}, "10.0.0.1")
	}

	w := postJSON(t, f.handler.Login, loginRequest{
		Email: "anna@example.com", Password: "correct-horse",
	}, "10.0.0.1")
	body := decodeBody(t, w)
	c := body["captcha"].(map[string]any)
	id, _ := c["id"].(string)
	text, _ := c["text"].(string)

	w = postJSON(t, f.handler.Login, loginRequest{
		Email: "anna@example.com", Password: "correct-horse",
		CaptchaID: id, CaptchaAnswer: solveCaptcha(t, text),
	}, "10.0.0.1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s, want 200 after solved captcha", w.Code, w.Body.String())
	}

	// Success resets the counter: the next failure is counted from one
	// and no captcha is required.
	if f.tracker.RequiresCaptcha("10.0.0.1", "anna@example.com") {
		t.Error("captcha still required after successful login")
	}
	w = postJSON(t, f.handler.Login, loginRequest{
		Email: "anna@example.com", Password: "wrong-again1",
	}, "10.0.0.1")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("post-reset failure status = %d, want 401", w.Code)
	}
	if got := decodeBody(t, w)["remainingAttempts"]; got != float64(4) {
		t.Errorf("remainingAttempts = %v, want 4 after reset", got)
	}
}

func TestLoginCaptchaExpiresWithWindow(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "anna@example.com", "correct-horse")

	for i := 0; i < 3; i++ {
		postJSON(t, f.handler.Login, loginRequest{
			Email: "anna@example.com", Password: "wrong-password",
		}, "10.0.0.1")
	}
	if !f.tracker.RequiresCaptcha("10.0.0.1", "anna@example.com") {
		t.Fatal("captcha should be required after three failures")
	}

	// After the sliding window lapses the slate is clean.
	f.clock.Advance(5*time.Minute + time.Second)

	w := postJSON(t, f.handler.Login, loginRequest{
		Email: "anna@example.com", Password: "correct-horse",
	}, "10.0.0.1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 after window expiry", w.Code)
	}
}

func TestLoginTracksPairsIndependently(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "anna@example.com", "correct-horse")

	for i := 0; i < 3; i++ {
		postJSON(t, f.handler.Login, loginRequest{
			Email: "anna@example.com", Password: "wrong-password",
		}, "10.0.0.1")
	}

	// A different client hitting the same account is not gated.
	w := postJSON(t, f.handler.Login, loginRequest{
		Email: "anna@example.com", Password: "correct-horse",
	}, "10.0.0.2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for clean client", w.Code)
	}
}

func TestCheckEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "known@example.com", "secret123")

	w := postJSON(t, f.handler.CheckEmail, checkEmailRequest{Email: "known@example.com"}, "10.0.0.1")
	if got := decodeBody(t, w)["exists"]; got != true {
		t.Errorf("exists = %v, want true", got)
	}

	w = postJSON(t, f.handler.CheckEmail, checkEmailRequest{Email: "ghost@example.com"}, "10.0.0.1")
	if got := decodeBody(t, w)["exists"]; got != false {
		t.Errorf("exists = %v, want false", got)
	}

	w = postJSON(t, f.handler.CheckEmail, map[string]string{}, "10.0.0.1")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing email status = %d, want 400", w.Code)
	}
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "anna@example.com", "old-password")

	ctx := context.WithValue(context.Background(), userIDKey, int64(1))

	do := func(current, next string) *httptest.ResponseRecorder {
		data, _ := json.Marshal(changePasswordRequest{CurrentPassword: current, NewPassword: next})
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewReader(data)).WithContext(ctx)
		w := httptest.NewRecorder()
		f.handler.ChangePassword(w, req)
		return w
	}

	if w := do("wrong-password", "new-password"); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong current password status = %d, want 401", w.Code)
	}
	if w := do("old-password", "new-password"); w.Code != http.StatusOK {
		t.Fatalf("change status = %d, want 200", w.Code)
	}

	u, _ := f.users.GetByID(context.Background(), 1)
	if !auth.CheckPassword(u.PasswordHash, "new-password") {
		t.Error("new password not stored")
	}
}

func TestSecurityStats(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "anna@example.com", "correct-horse")

	postJSON(t, f.handler.Login, loginRequest{
		Email: "anna@example.com", Password: "wrong-password",
	}, "10.0.0.1")
	postJSON(t, f.handler.Login, loginRequest{
		Email: "anna@example.com", Password: "wrong-password",
	}, "10.0.0.1")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	f.handler.SecurityStats(w, req)

	body := decodeBody(t, w)
	if body["totalFailedAttempts"] != float64(1) {
		t.Fatalf("totalFailedAttempts = %v, want 1", body["totalFailedAttempts"])
	}
	stats := body["stats"].([]any)
	entry := stats[0].(map[string]any)
	if entry["attempts"] != float64(2) {
		t.Errorf("attempts = %v, want 2", entry["attempts"])
	}
}
