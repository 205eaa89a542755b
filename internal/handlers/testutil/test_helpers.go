package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/teamhub/internal/api"
	"github.com/charlesng35/teamhub/internal/app"
	"github.com/charlesng35/teamhub/internal/auth"
	sharedtestutil "github.com/charlesng35/teamhub/internal/database/testutil"
	"github.com/charlesng35/teamhub/internal/middleware"
	"github.com/charlesng35/teamhub/pkg/mail"
)

// AppURL is the public URL configured for test environments.
const AppURL = "http://app.test"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
// It behaves like a browser: cookies set by responses are replayed on later requests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	Codec    *auth.SessionCodec
	Outbox   *Outbox
	Services *api.Services

	cookies map[string]*http.Cookie
}

// EnvOption customises the configuration used by NewEnv.
type EnvOption func(*app.Config)

// WithConfig mutates the test configuration before the router is built.
func WithConfig(fn func(*app.Config)) EnvOption {
	return func(cfg *app.Config) { fn(cfg) }
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	cfg := &app.Config{
		App: app.AppConfig{Name: "teamhub", URL: AppURL},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{Secret: "test-suite-super-secret-key-32-bytes!!", Issuer: "test-suite", TTL: time.Hour},
		},
		Session: app.SessionConfig{Secret: "test-suite-cookie-secret", CookieName: auth.DefaultSessionCookieName},
		Invites: app.InviteConfig{TTL: 24 * time.Hour},
		Mail:    app.MailConfig{From: "noreply@app.test"},
		Server:  app.ServerConfig{Metrics: app.MetricsConfig{Enabled: true, Endpoint: "/metrics"}},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jwtSvc, err := auth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)
	issuer, err := auth.NewCredentialIssuer(db, jwtSvc, cfg.Auth.IssuerConfig())
	require.NoError(t, err)
	codec, err := auth.NewSessionCodec(cfg.Session.CodecConfig())
	require.NoError(t, err)

	outbox := &Outbox{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	deps := api.Dependencies{
		DB:        db,
		Config:    cfg,
		Issuer:    issuer,
		Codec:     codec,
		Mailer:    outbox,
		RateStore: middleware.NewMemoryRateStore(ctx),
	}
	svc, err := api.NewServices(deps)
	require.NoError(t, err)
	router, err := api.NewRouter(deps, svc)
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		Codec:    codec,
		Outbox:   outbox,
		Services: svc,
		cookies:  make(map[string]*http.Cookie),
	}
}

// Outbox records outgoing mail and can be told to fail.
type Outbox struct {
	mu       sync.Mutex
	messages []mail.Message
	Fail     error
}

// Send implements mail.Mailer.
func (o *Outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Fail != nil {
		return o.Fail
	}
	o.messages = append(o.messages, msg)
	return nil
}

// Last returns the most recent message.
func (o *Outbox) Last(t *testing.T) mail.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.messages)
	return o.messages[len(o.messages)-1]
}

var hrefPattern = regexp.MustCompile(`href="([^"]+)"`)

// AcceptPath extracts the acceptance link from an invitation email as a
// router-relative path.
func AcceptPath(t *testing.T, msg mail.Message) string {
	t.Helper()
	match := hrefPattern.FindStringSubmatch(msg.Body)
	require.Len(t, match, 2)
	link, err := url.Parse(html.UnescapeString(match[1]))
	require.NoError(t, err)
	return link.RequestURI()
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, JSON encoding body
// and replaying stored cookies.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range e.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	e.captureCookies(w.Result())
	return w
}

// SessionCookie returns the current session cookie, if any.
func (e *Env) SessionCookie() *http.Cookie {
	return e.cookies[e.Codec.CookieName()]
}

// Session decodes the current session cookie.
func (e *Env) Session() *auth.SessionDescriptor {
	e.T.Helper()
	cookie := e.SessionCookie()
	require.NotNil(e.T, cookie, "no session cookie")
	desc, err := e.Codec.Decode(cookie.Value)
	require.NoError(e.T, err)
	return desc
}

// ClearCookies forgets every stored cookie.
func (e *Env) ClearCookies() {
	e.cookies = make(map[string]*http.Cookie)
}

func (e *Env) captureCookies(resp *http.Response) {
	if resp == nil {
		return
	}
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(e.cookies, c.Name)
			continue
		}
		e.cookies[c.Name] = &http.Cookie{Name: c.Name, Value: c.Value}
	}
}

// SignupOwner registers an owner account and signs it in.
func (e *Env) SignupOwner(email, password string) {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    email,
		"password": password,
		"f_name":   "Olive",
		"l_name":   "Owner",
		"role":     "owner",
	})
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())
	e.Login(email, password)
}

// Login signs in through the API, storing the session cookie.
func (e *Env) Login(email, password string) APIResponse {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(e.T, e.SessionCookie())
	return DecodeResponse(e.T, w)
}
