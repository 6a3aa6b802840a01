package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/oauth"
	"github.com/promptform/promptform/app"
	"github.com/promptform/promptform/config"
	"github.com/promptform/promptform/database"
	"github.com/promptform/promptform/fieldgen"
	"github.com/promptform/promptform/httpx"
)

type stubGenerator struct {
	response string
	err      error
}

func (s *stubGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func newTestApp(t *testing.T, generator fieldgen.TextGenerator) (app.App, http.Handler) {
	t.Helper()

	cfg := config.Config{
		Addr:        "127.0.0.1:5000",
		DBUrl:       filepath.Join(t.TempDir(), "test.sqlite"),
		TokenSecret: "test-secret",
		TokenTTL:    time.Minute,
	}

	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var fieldGen *fieldgen.Service
	if generator != nil {
		fieldGen = fieldgen.NewService(generator)
	}

	a := app.App{
		DB:           db,
		BearerServer: oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, httpx.CredentialsVerifier(db), nil),
		Config:       cfg,
		FieldGen:     fieldGen,
	}
	return a, Wire(a)
}

func postForm(handler http.Handler, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func postJSON(handler http.Handler, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func get(handler http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func signupAndLogin(t *testing.T, handler http.Handler, email, password string) []*http.Cookie {
	t.Helper()

	w := postForm(handler, "/signup", url.Values{
		"email":            {email},
		"password":         {password},
		"confirm_password": {password},
	}, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("signup status = %d, want 303", w.Code)
	}

	w = postForm(handler, "/login", url.Values{
		"email":    {email},
		"password": {password},
	}, nil)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("login status = %d location = %q, want 303 to /dashboard", w.Code, w.Header().Get("Location"))
	}

	cookies := w.Result().Cookies()
	for _, c := range cookies {
		if c.Name == "access_token" && c.Value != "" {
			return cookies
		}
	}
	t.Fatal("login did not set an access_token cookie")
	return nil
}

func TestSignupMismatchedPasswordsCreatesNoUser(t *testing.T) {
	a, handler := newTestApp(t, nil)

	w := postForm(handler, "/signup", url.Values{
		"email":            {"mismatch@example.com"},
		"password":         {"hunter2!"},
		"confirm_password": {"hunter3!"},
	}, nil)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("signup status = %d, want 303", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Location"), "/signup?error=") {
		t.Errorf("signup location = %q, want redirect back with error", w.Header().Get("Location"))
	}

	var count int
	err := a.QueryRow("SELECT count(*) FROM user WHERE email = ?", "mismatch@example.com").Scan(&count)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Errorf("user rows = %d, want 0", count)
	}
}

func TestLoginWrongPasswordEstablishesNoSession(t *testing.T) {
	_, handler := newTestApp(t, nil)

	w := postForm(handler, "/signup", url.Values{
		"email":            {"alice@example.com"},
		"password":         {"correct horse"},
		"confirm_password": {"correct horse"},
	}, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("signup status = %d, want 303", w.Code)
	}

	w = postForm(handler, "/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"wrong horse"},
	}, nil)

	if !strings.HasPrefix(w.Header().Get("Location"), "/login?error=") {
		t.Errorf("login location = %q, want redirect back with error", w.Header().Get("Location"))
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "access_token" && c.Value != "" {
			t.Error("wrong password still set an access_token cookie")
		}
	}

	// the protected dashboard must not be reachable
	w = get(handler, "/dashboard", nil)
	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("dashboard without session status = %d, want 307 to login", w.Code)
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	a, handler := newTestApp(t, nil)

	form := url.Values{
		"email":            {"dup@example.com"},
		"password":         {"pass-word"},
		"confirm_password": {"pass-word"},
	}
	postForm(handler, "/signup", form, nil)
	w := postForm(handler, "/signup", form, nil)

	if !strings.HasPrefix(w.Header().Get("Location"), "/signup?error=") {
		t.Errorf("second signup location = %q, want redirect back with error", w.Header().Get("Location"))
	}

	var count int
	if err := a.QueryRow("SELECT count(*) FROM user WHERE email = ?", "dup@example.com").Scan(&count); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Errorf("user rows = %d, want 1", count)
	}
}

func TestPublishThenViewRoundTrip(t *testing.T) {
	a, handler := newTestApp(t, nil)
	cookies := signupAndLogin(t, handler, "owner@example.com", "pass-word")

	w := postJSON(handler, "/finalize_form",
		`{"title":"Test Form","theme":"","fields":[{"label":"Name","dataType":"text","validation":"required"}]}`,
		cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("finalize status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("finalize body: %v", err)
	}
	if !resp.Success {
		t.Fatalf("finalize success = false, body = %s", w.Body.String())
	}

	prefix := a.Url() + "/form/"
	if !strings.HasPrefix(resp.URL, prefix) {
		t.Fatalf("finalize url = %q, want prefix %q", resp.URL, prefix)
	}
	urlSlug := strings.TrimPrefix(resp.URL, prefix)
	if len(urlSlug) != 8 {
		t.Errorf("slug %q length = %d, want 8", urlSlug, len(urlSlug))
	}

	w = get(handler, "/form/"+urlSlug, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("view form status = %d, want 200", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(page, "Name") || !strings.Contains(page, "<input") {
		t.Errorf("form page does not render an input for the published field:\n%s", page)
	}
}

func TestSubmitThenStoreRoundTrip(t *testing.T) {
	a, handler := newTestApp(t, nil)
	cookies := signupAndLogin(t, handler, "owner2@example.com", "pass-word")

	w := postJSON(handler, "/finalize_form",
		`{"title":"Contact","fields":[{"label":"Name","dataType":"text","validation":"required"}]}`,
		cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("finalize status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("finalize body: %v", err)
	}
	urlSlug := resp.URL[strings.LastIndex(resp.URL, "/")+1:]

	var fieldId int
	err := a.QueryRow(`
		SELECT ff.id FROM form_field ff
		INNER JOIN form f ON (f.id = ff.form_id)
		WHERE f.url_slug = ?`, urlSlug).Scan(&fieldId)
	if err != nil {
		t.Fatalf("lookup field id: %v", err)
	}

	w = postForm(handler, "/form/"+urlSlug, url.Values{
		"field-" + strconv.Itoa(fieldId): {"Alice"},
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Thank you") {
		t.Error("submit did not render the thank-you page")
	}

	var responseCount, answerCount int
	if err := a.QueryRow("SELECT count(*) FROM form_response").Scan(&responseCount); err != nil {
		t.Fatalf("count responses: %v", err)
	}
	if err := a.QueryRow("SELECT count(*) FROM response_answer WHERE value = 'Alice' AND field_id = ?", fieldId).Scan(&answerCount); err != nil {
		t.Fatalf("count answers: %v", err)
	}
	if responseCount != 1 || answerCount != 1 {
		t.Errorf("responses = %d, answers = %d, want 1 and 1", responseCount, answerCount)
	}
}

func TestViewUnknownSlugIs404(t *testing.T) {
	_, handler := newTestApp(t, nil)

	w := get(handler, "/form/zzzzzzzz", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown slug status = %d, want 404", w.Code)
	}
}

func TestFinalizeWithoutFieldsIs400(t *testing.T) {
	_, handler := newTestApp(t, nil)
	cookies := signupAndLogin(t, handler, "owner3@example.com", "pass-word")

	w := postJSON(handler, "/finalize_form", `{"title":"Empty","fields":[]}`, cookies)
	if w.Code != http.StatusBadRequest {
		t.Errorf("finalize status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No fields provided.") {
		t.Errorf("finalize body = %s, want error message", w.Body.String())
	}
}

func TestGenerateEndpoint(t *testing.T) {
	raw := "1. Name, Your name, text, required\n2. Country, Pick one, select, required, [USA, UK]"
	_, handler := newTestApp(t, &stubGenerator{response: raw})

	w := postJSON(handler, "/generate", `{"prompt":"A visitor registration form"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success     bool   `json:"success"`
		RawResponse string `json:"raw_response"`
		Fields      []struct {
			Label   string   `json:"label"`
			Type    string   `json:"type"`
			Options []string `json:"options"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("generate body: %v", err)
	}
	if !resp.Success || resp.RawResponse != raw {
		t.Errorf("generate body = %s", w.Body.String())
	}
	if len(resp.Fields) != 2 || resp.Fields[1].Options[0] != "USA" {
		t.Errorf("generate fields = %+v", resp.Fields)
	}
}

func TestGenerateEmptyPromptIs400(t *testing.T) {
	_, handler := newTestApp(t, &stubGenerator{response: "unused"})

	w := postJSON(handler, "/generate", `{"prompt":"   "}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("generate status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Prompt cannot be empty") {
		t.Errorf("generate body = %s", w.Body.String())
	}
}

func TestGenerateUnconfiguredIs500(t *testing.T) {
	_, handler := newTestApp(t, nil)

	w := postJSON(handler, "/generate", `{"prompt":"anything"}`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("generate status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "API key not configured") {
		t.Errorf("generate body = %s", w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	_, handler := newTestApp(t, &stubGenerator{})

	w := get(handler, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", w.Code)
	}

	var resp struct {
		Status        string `json:"status"`
		APIConfigured bool   `json:"api_configured"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("health body: %v", err)
	}
	if resp.Status != "healthy" || !resp.APIConfigured {
		t.Errorf("health = %+v", resp)
	}
}
