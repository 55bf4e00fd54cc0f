package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"authsvc/internal/domain"
	"authsvc/internal/events"
	"authsvc/internal/service/impl"
	"authsvc/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type captureDispatcher struct {
	mu   sync.Mutex
	sent []events.VerificationEmail
	err  error
}

func (c *captureDispatcher) Dispatch(_ context.Context, item events.VerificationEmail) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return fmt.Errorf("%w: %v", domain.ErrChannelUnavailable, c.err)
	}
	c.sent = append(c.sent, item)
	return nil
}

func (c *captureDispatcher) lastToken(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent, "no verification email captured")
	text := c.sent[len(c.sent)-1].Text
	link := text[strings.Index(text, "http"):]
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("verification_token")
}

type testServer struct {
	srv    *httptest.Server
	client *http.Client
	mail   *captureDispatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	st := store.New(db)
	require.NoError(t, st.Migrate(context.Background()))

	passwords := impl.NewPasswordServiceArgon2id(impl.Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	tokens, err := impl.NewTokenServiceHS256(impl.TokenConfig{
		Issuer:          "authsvc-test",
		SessionTTL:      time.Hour,
		VerificationTTL: 24 * time.Hour,
		SigningKey:      []byte("test-secret"),
	})
	require.NoError(t, err)

	mail := &captureDispatcher{}
	auth := impl.NewAuthServiceImpl(st.Accounts(passwords), tokens, mail, nil, impl.AuthConfig{AppURL: "http://localhost:4200"})

	srv := httptest.NewServer(NewRouter(auth, RouterConfig{CORSOrigins: []string{"http://localhost:4200"}}))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{srv: srv, client: &http.Client{Jar: jar}, mail: mail}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func (s *testServer) raw(t *testing.T, path string, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(s.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

func TestEndToEndAccountLifecycle(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodPost, "/register", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, msgRegistered, body["message"])

	login := map[string]string{"email": "a@x.com", "password": "secret1"}
	resp, body = s.do(t, http.MethodPost, "/login", login)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgNotVerified, body["message"])
	assert.Nil(t, sessionCookie(resp))

	resp, body = s.do(t, http.MethodPost, "/verify-email", map[string]string{"token": s.mail.lastToken(t)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, msgVerified, body["message"])

	resp, body = s.do(t, http.MethodPost, "/login", login)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, msgLoginOK, body["message"])
	c := sessionCookie(resp)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.NotEmpty(t, c.Value)

	resp, body = s.do(t, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
	assert.NotEmpty(t, body["id"])
	id := body["id"].(string)

	resp, body = s.do(t, http.MethodGet, "/user/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"username": "alice", "email": "a@x.com"}, body)

	resp, body = s.do(t, http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, msgLogoutOK, body["message"])
	cleared := sessionCookie(resp)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	resp, body = s.do(t, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, msgUnauthorized, body["message"])
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(t, http.MethodPost, "/register", map[string]string{
		"username": "bob", "email": "bob@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	unknownStatus, unknownBody := s.raw(t, "/login", `{"email":"nobody@x.com","password":"secret1"}`)
	wrongStatus, wrongBody := s.raw(t, "/login", `{"email":"bob@x.com","password":"wrong-pass"}`)

	assert.Equal(t, http.StatusUnauthorized, unknownStatus)
	assert.Equal(t, unknownStatus, wrongStatus)
	assert.Equal(t, unknownBody, wrongBody)
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t)
	reg := map[string]string{"username": "carol", "email": "c@x.com", "password": "secret1"}

	resp, _ := s.do(t, http.MethodPost, "/register", reg)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	reg["email"] = "C@X.com"
	resp, body := s.do(t, http.MethodPost, "/register", reg)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgDuplicateEmail, body["message"])

	resp, body = s.do(t, http.MethodPost, "/register", map[string]string{"username": "ca", "email": "d@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Username must be at least 3 characters long", body["message"])

	status, raw := s.raw(t, "/register", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, raw, msgInvalidBody)
}

func TestRegisterDispatchFailureKeepsAccount(t *testing.T) {
	s := newTestServer(t)
	s.mail.err = errors.New("broker down")

	resp, body := s.do(t, http.MethodPost, "/register", map[string]string{
		"username": "dave", "email": "dave@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, msgRegisteredNoEmail, body["message"])

	resp, body = s.do(t, http.MethodPost, "/resend-verification", map[string]string{"email": "dave@x.com"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, msgChannelUnavailable, body["message"])

	s.mail.err = nil
	resp, _ = s.do(t, http.MethodPost, "/resend-verification", map[string]string{"email": "dave@x.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/verify-email", map[string]string{"token": s.mail.lastToken(t)})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResendVerificationUnknownEmailLooksTheSame(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(t, http.MethodPost, "/register", map[string]string{
		"username": "erin", "email": "erin@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	knownStatus, knownBody := s.raw(t, "/resend-verification", `{"email":"erin@x.com"}`)
	unknownStatus, unknownBody := s.raw(t, "/resend-verification", `{"email":"ghost@x.com"}`)
	assert.Equal(t, http.StatusOK, knownStatus)
	assert.Equal(t, knownStatus, unknownStatus)
	assert.Equal(t, knownBody, unknownBody)
}

func TestVerifyEmailRejectsBadTokensUniformly(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{`{"token":"garbage"}`, `{"token":""}`, `{}`, `nope`} {
		status, raw := s.raw(t, "/verify-email", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Contains(t, raw, msgInvalidToken, body)
	}
}

func TestVerifyEmailTwiceSucceeds(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(t, http.MethodPost, "/register", map[string]string{
		"username": "frank", "email": "frank@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := s.mail.lastToken(t)

	for i := 0; i < 2; i++ {
		resp, body := s.do(t, http.MethodPost, "/verify-email", map[string]string{"token": token})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, msgVerified, body["message"])
	}
}

func TestMeRejectsInvalidCookie(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, s.srv.URL+"/me", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "not-a-token"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUserNotFound(t *testing.T) {
	s := newTestServer(t)

	for _, id := range []string{"9b2f6f1e-2f4e-4c7a-9d57-0d6f0f0f0f0f", "not-a-uuid"} {
		resp, body := s.do(t, http.MethodGet, "/user/"+id, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, id)
		assert.Equal(t, msgUserNotFound, body["message"], id)
	}
}

func TestHealthzAndRequestID(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, s.srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
}

func TestClassifyUnknownErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)

	writeError(rec, req, errors.New("connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}
