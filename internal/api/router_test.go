package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rohits-web03/docvault/internal/api/handlers"
	"github.com/rohits-web03/docvault/internal/api/services"
	"github.com/rohits-web03/docvault/internal/auth"
	"github.com/rohits-web03/docvault/internal/config"
	"github.com/rohits-web03/docvault/internal/extractor"
	"github.com/rohits-web03/docvault/internal/repositories"
	"github.com/rohits-web03/docvault/internal/storage"
	"github.com/rohits-web03/docvault/internal/summarizer"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type docJSON struct {
	ID         uint    `json:"id"`
	Filename   string  `json:"filename"`
	Analysis   *string `json:"analysis"`
	Signature  *string `json:"signature"`
	SignedDate *string `json:"signedDate"`
	State      string  `json:"state"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler

	mu      sync.Mutex
	prompts []string
}

func (ts *testServer) recordedPrompts() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.prompts...)
}

func newTestServer(t *testing.T, maxUpload int64) *testServer {
	t.Helper()
	ts := &testServer{t: t}

	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Model != "llama3" || req.Stream {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		ts.mu.Lock()
		ts.prompts = append(ts.prompts, req.Prompt)
		ts.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"response": "Short summary"})
	}))
	t.Cleanup(ollama.Close)

	db, err := repositories.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	logger := zap.NewNop()
	sessions := auth.NewSessionStore(time.Hour, logger)
	tokens := auth.NewTokenManager("test-secret")
	authService := services.NewAuthService(repositories.NewUserRepository(db), sessions, tokens, logger)
	docService := services.NewDocumentService(
		repositories.NewDocumentRepository(db),
		store,
		extractor.New(),
		summarizer.NewOllamaClient(ollama.URL, "llama3", 5*time.Second),
		logger,
	)

	cfg := config.Config{CorsConfig: config.CorsConfig("http://localhost:5173")}
	ts.handler = NewRouter(cfg, Handlers{
		Auth:      handlers.NewAuthHandler(authService, false, logger),
		Documents: handlers.NewDocumentHandler(docService, maxUpload, logger),
	}, auth.Chain{sessions, tokens}, logger)
	return ts
}

type credential func(*http.Request)

func bearer(token string) credential {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func cookie(c *http.Cookie) credential {
	return func(r *http.Request) { r.AddCookie(c) }
}

func (ts *testServer) do(req *http.Request, cred credential) *httptest.ResponseRecorder {
	if cred != nil {
		cred(req)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) json(method, path, body string, cred credential) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := ts.do(req, cred)
	return rr, decodeEnvelope(ts.t, rr)
}

func (ts *testServer) upload(filename string, content []byte, cred credential) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		ts.t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := ts.do(req, cred)
	return rr, decodeEnvelope(ts.t, rr)
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("invalid JSON body %q: %v", rr.Body.String(), err)
		}
	}
	return env
}

func decodeDoc(t *testing.T, env envelope) docJSON {
	t.Helper()
	var d docJSON
	if err := json.Unmarshal(env.Data, &d); err != nil {
		t.Fatalf("invalid document payload %s: %v", env.Data, err)
	}
	return d
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

func (ts *testServer) loginSession(username, password string) *http.Cookie {
	ts.t.Helper()
	rr, _ := ts.json(http.MethodPost, "/api/v1/auth/login", `{"username":"`+username+`","password":"`+password+`"}`, nil)
	expectStatus(ts.t, rr, http.StatusOK)
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			if !c.HttpOnly {
				ts.t.Error("session cookie must be HttpOnly")
			}
			return c
		}
	}
	ts.t.Fatal("no session cookie set")
	return nil
}

func (ts *testServer) loginToken(username, password string) string {
	ts.t.Helper()
	rr, env := ts.json(http.MethodPost, "/api/v1/auth/login?mode=token", `{"username":"`+username+`","password":"`+password+`"}`, nil)
	expectStatus(ts.t, rr, http.StatusOK)
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil || out.Token == "" {
		ts.t.Fatalf("token response %s: %v", env.Data, err)
	}
	return out.Token
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	rr := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	expectStatus(t, rr, http.StatusOK)
	if rr.Body.String() != "OK" {
		t.Errorf("body = %q", rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestRegisterAndLoginFlow(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	rr, env := ts.json(http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"pw1"}`, nil)
	expectStatus(t, rr, http.StatusCreated)
	if !env.Success {
		t.Errorf("register payload = %+v", env)
	}

	rr, env = ts.json(http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"pw2"}`, nil)
	expectStatus(t, rr, http.StatusConflict)
	if env.Success || env.Message != "Username is already taken" {
		t.Errorf("duplicate register payload = %+v", env)
	}

	rr, _ = ts.json(http.MethodPost, "/api/v1/auth/register", `{"username":"bob"}`, nil)
	expectStatus(t, rr, http.StatusBadRequest)
	rr, _ = ts.json(http.MethodPost, "/api/v1/auth/register", `{"username":"bob","password":"x","email":"b@x"}`, nil)
	expectStatus(t, rr, http.StatusBadRequest)
	rr, _ = ts.json(http.MethodPost, "/api/v1/auth/register", `not json`, nil)
	expectStatus(t, rr, http.StatusBadRequest)
	rr, env = ts.json(http.MethodPost, "/api/v1/auth/register", `{"username":"bob","password":"`+strings.Repeat("p", 80)+`"}`, nil)
	expectStatus(t, rr, http.StatusBadRequest)
	if env.Message != "Password must be at most 72 bytes" {
		t.Errorf("long password message = %q", env.Message)
	}

	rr, env = ts.json(http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"nope"}`, nil)
	expectStatus(t, rr, http.StatusUnauthorized)
	if env.Message != "Invalid credentials" {
		t.Errorf("message = %q", env.Message)
	}
	rr, _ = ts.json(http.MethodPost, "/api/v1/auth/login?mode=magic", `{"username":"alice","password":"pw1"}`, nil)
	expectStatus(t, rr, http.StatusBadRequest)

	session := ts.loginSession("alice", "pw1")
	rr, _ = ts.json(http.MethodGet, "/api/v1/documents", "", cookie(session))
	expectStatus(t, rr, http.StatusOK)

	token := ts.loginToken("alice", "pw1")
	rr, _ = ts.json(http.MethodGet, "/api/v1/documents", "", bearer(token))
	expectStatus(t, rr, http.StatusOK)

	rr, _ = ts.json(http.MethodPost, "/api/v1/auth/logout", "", cookie(session))
	expectStatus(t, rr, http.StatusOK)
	rr, _ = ts.json(http.MethodGet, "/api/v1/documents", "", cookie(session))
	expectStatus(t, rr, http.StatusUnauthorized)

	// Logout only ends the cookie session.
	rr, _ = ts.json(http.MethodGet, "/api/v1/documents", "", bearer(token))
	expectStatus(t, rr, http.StatusOK)
}

func TestLogoutClearsStaleCookie(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	for name, cred := range map[string]credential{
		"unknown session": cookie(&http.Cookie{Name: auth.SessionCookieName, Value: "expired-session"}),
		"no credentials":  nil,
	} {
		rr, env := ts.json(http.MethodPost, "/api/v1/auth/logout", "", cred)
		expectStatus(t, rr, http.StatusOK)
		if !env.Success {
			t.Errorf("%s: payload = %+v", name, env)
		}

		var cleared bool
		for _, c := range rr.Result().Cookies() {
			if c.Name == auth.SessionCookieName && c.MaxAge < 0 {
				cleared = true
			}
		}
		if !cleared {
			t.Errorf("%s: session cookie not expired, Set-Cookie = %q", name, rr.Header().Values("Set-Cookie"))
		}
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/documents"},
		{http.MethodPost, "/api/v1/documents"},
		{http.MethodGet, "/api/v1/documents/1"},
		{http.MethodPost, "/api/v1/documents/1/analyze"},
		{http.MethodPost, "/api/v1/documents/1/sign"},
		{http.MethodGet, "/api/v1/documents/1/download"},
		{http.MethodGet, "/api/v1/documents/1/file"},
		{http.MethodDelete, "/api/v1/documents/1"},
	} {
		rr := ts.do(httptest.NewRequest(tc.method, tc.path, nil), nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", tc.method, tc.path, rr.Code)
		}
	}

	rr := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil), bearer("not-a-token"))
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestDocumentLifecycle(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	ts.json(http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"pw1"}`, nil)
	alice := cookie(ts.loginSession("alice", "pw1"))

	content := []byte("Quarterly results were strong across all regions.")
	rr, env := ts.upload("report.txt", content, alice)
	expectStatus(t, rr, http.StatusCreated)
	doc := decodeDoc(t, env)
	if doc.Filename != "report.txt" || doc.State != "UPLOADED" || doc.Analysis != nil || doc.Signature != nil {
		t.Fatalf("uploaded document = %+v", doc)
	}
	base := "/api/v1/documents/" + jsonID(doc.ID)

	rr, env = ts.upload("report.txt", []byte("other"), alice)
	expectStatus(t, rr, http.StatusCreated)
	if again := decodeDoc(t, env); again.Filename == "report.txt" || again.ID == doc.ID {
		t.Errorf("re-upload reused %q", again.Filename)
	}

	rr, env = ts.json(http.MethodPost, base+"/analyze", "", alice)
	expectStatus(t, rr, http.StatusOK)
	doc = decodeDoc(t, env)
	if doc.Analysis == nil || *doc.Analysis != "Short summary" || doc.State != "ANALYZED" {
		t.Errorf("analyzed document = %+v", doc)
	}
	if prompts := ts.recordedPrompts(); len(prompts) != 1 || prompts[0] != "Summarize this document: "+string(content) {
		t.Errorf("prompts = %q", prompts)
	}

	rr, _ = ts.json(http.MethodPost, base+"/sign", `{"signature":""}`, alice)
	expectStatus(t, rr, http.StatusBadRequest)

	rr, env = ts.json(http.MethodPost, base+"/sign", `{"signature":"alice-sig"}`, alice)
	expectStatus(t, rr, http.StatusOK)
	doc = decodeDoc(t, env)
	if doc.Signature == nil || *doc.Signature != "alice-sig" || doc.SignedDate == nil || doc.State != "SIGNED" {
		t.Errorf("signed document = %+v", doc)
	}

	form := url.Values{"signature": {"form-sig"}}
	req := httptest.NewRequest(http.MethodPost, base+"/sign", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = ts.do(req, alice)
	expectStatus(t, rr, http.StatusOK)
	if doc = decodeDoc(t, decodeEnvelope(t, rr)); *doc.Signature != "form-sig" {
		t.Errorf("form signature = %q", *doc.Signature)
	}

	rr = ts.do(httptest.NewRequest(http.MethodGet, base+"/download", nil), alice)
	expectStatus(t, rr, http.StatusOK)
	if !bytes.Equal(rr.Body.Bytes(), content) {
		t.Errorf("download body = %q", rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, "report.txt") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rr = ts.do(httptest.NewRequest(http.MethodGet, base+"/file", nil), alice)
	expectStatus(t, rr, http.StatusOK)
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rr, env = ts.json(http.MethodGet, "/api/v1/documents", "", alice)
	expectStatus(t, rr, http.StatusOK)
	var list []docJSON
	if err := json.Unmarshal(env.Data, &list); err != nil || len(list) != 2 {
		t.Fatalf("list = %s, %v", env.Data, err)
	}

	rr, _ = ts.json(http.MethodDelete, base, "", alice)
	expectStatus(t, rr, http.StatusOK)
	rr, _ = ts.json(http.MethodGet, base, "", alice)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestOtherUsersDocumentsAreHidden(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	ts.json(http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"pw1"}`, nil)
	ts.json(http.MethodPost, "/api/v1/auth/register", `{"username":"bob","password":"pw2"}`, nil)
	alice := cookie(ts.loginSession("alice", "pw1"))
	bob := bearer(ts.loginToken("bob", "pw2"))

	rr, env := ts.upload("alice.txt", []byte("private"), alice)
	expectStatus(t, rr, http.StatusCreated)
	base := "/api/v1/documents/" + jsonID(decodeDoc(t, env).ID)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, base, ""},
		{http.MethodPost, base + "/analyze", ""},
		{http.MethodPost, base + "/sign", `{"signature":"bob"}`},
		{http.MethodPost, base + "/sign", `{"signature":""}`},
		{http.MethodGet, base + "/download", ""},
		{http.MethodGet, base + "/file", ""},
		{http.MethodDelete, base, ""},
	} {
		rr, _ := ts.json(tc.method, tc.path, tc.body, bob)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s %s as bob: status = %d, want 404", tc.method, tc.path, rr.Code)
		}
	}

	rr, env = ts.json(http.MethodGet, "/api/v1/documents", "", bob)
	expectStatus(t, rr, http.StatusOK)
	if string(env.Data) != "[]" {
		t.Errorf("bob's list = %s, want []", env.Data)
	}

	rr, env = ts.json(http.MethodGet, base, "", alice)
	expectStatus(t, rr, http.StatusOK)
	if d := decodeDoc(t, env); d.Signature != nil {
		t.Error("bob's sign request changed alice's document")
	}
}

func TestDocumentRequestErrors(t *testing.T) {
	ts := newTestServer(t, 512)
	ts.json(http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"pw1"}`, nil)
	alice := cookie(ts.loginSession("alice", "pw1"))

	rr, env := ts.json(http.MethodGet, "/api/v1/documents/abc", "", alice)
	expectStatus(t, rr, http.StatusBadRequest)
	if env.Message != "Invalid document id" {
		t.Errorf("message = %q", env.Message)
	}

	rr, _ = ts.upload("big.txt", bytes.Repeat([]byte("a"), 2048), alice)
	expectStatus(t, rr, http.StatusRequestEntityTooLarge)

	rr, _ = ts.upload("empty.txt", nil, alice)
	expectStatus(t, rr, http.StatusBadRequest)

	rr, _ = ts.json(http.MethodPost, "/api/v1/documents", `{}`, alice)
	expectStatus(t, rr, http.StatusBadRequest)

	rr, env = ts.upload("broken.pdf", []byte("not a pdf"), alice)
	expectStatus(t, rr, http.StatusCreated)
	id := jsonID(decodeDoc(t, env).ID)
	rr, _ = ts.json(http.MethodPost, "/api/v1/documents/"+id+"/analyze", "", alice)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	if len(ts.recordedPrompts()) != 0 {
		t.Error("summarizer called for an unreadable file")
	}
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
