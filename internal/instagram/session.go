package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HansBhatia/genderscan/internal/config"
	"github.com/HansBhatia/genderscan/internal/identity"
)

const (
	// defaultBaseURL is the Instagram web origin. Tests point sessions
	// at an httptest server instead.
	defaultBaseURL = "https://www.instagram.com"

	// igAppID is the public application ID the Instagram web client
	// sends with API requests. Requests without it get HTML, not JSON.
	igAppID = "936619743392459"

	loginPagePath = "/accounts/login/"
	loginPath     = "/accounts/login/ajax/"
	twoFactorPath = "/accounts/login/ajax/two_factor/"
	profilePath   = "/api/v1/users/web_profile_info/"

	// maxRedirects bounds redirect chains to prevent loops.
	maxRedirects = 10
)

// Session is one authenticated Instagram browser session, bound to a
// single identity. A session is owned by exactly one worker goroutine
// after construction, so it carries no locks: request pacing state and
// the cookie jar are mutated by the owner only.
type Session struct {
	// ident is the identity this session authenticates as.
	ident identity.Identity

	// client routes requests through the identity's proxy and keeps
	// cookies in its jar.
	client *http.Client

	// jar is retained for cookie persistence across runs.
	jar *cookiejar.Jar

	// baseURL is the Instagram origin. Overridable for tests.
	baseURL string

	// userAgent is sent on every request so the session looks like the
	// same browser that logged in.
	userAgent string

	// maxBody caps how many response bytes are read, for both API
	// responses and avatar downloads.
	maxBody int64

	// sessionFile is where cookies are saved between runs.
	sessionFile string

	logger *slog.Logger

	// authed is set once the session holds a valid sessionid cookie.
	authed bool

	// relogged records that the one in-run fresh-login fallback has
	// been spent.
	relogged bool

	// lastRequest drives pacing between consecutive requests.
	lastRequest time.Time
}

// NewSession builds the session for one identity: proxy-aware transport,
// cookie jar, and the on-disk cookie location. No network traffic happens
// here; call Login to authenticate.
func NewSession(cfg *config.Config, ident identity.Identity, logger *slog.Logger) (*Session, error) {
	transport, err := newTransport(ident.Proxy)
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", ident.ID, err)
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	client := &http.Client{
		Transport: transport,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &Session{
		ident:       ident,
		client:      client,
		jar:         jar,
		baseURL:     defaultBaseURL,
		userAgent:   cfg.UserAgent,
		maxBody:     cfg.MaxBodySize,
		sessionFile: filepath.Join(cfg.SessionDir, "session_"+ident.ID+".json"),
		logger:      logger.With(slog.String("identity", ident.ID)),
	}, nil
}

// Identity returns the identity this session fetches as.
func (s *Session) Identity() identity.Identity {
	return s.ident
}

// Login authenticates the session. Saved cookies from a previous run are
// reused when present; otherwise it performs a full credential login and
// persists the resulting cookies.
func (s *Session) Login(ctx context.Context) error {
	if s.loadCookies() && s.hasSessionCookie() {
		s.logger.Info("reusing saved session", slog.String("file", s.sessionFile))
		s.authed = true
		return nil
	}
	if err := s.freshLogin(ctx); err != nil {
		return err
	}
	s.logger.Info("logged in")
	return nil
}

// freshLogin performs the Instagram web login flow: fetch the login page
// for a CSRF token, post credentials, answer the two-factor prompt when
// asked, then persist cookies.
func (s *Session) freshLogin(ctx context.Context) error {
	csrf, err := s.fetchCSRFToken(ctx)
	if err != nil {
		return fmt.Errorf("identity %s: %w", s.ident.ID, err)
	}

	// The web client sends the password in its own envelope with a
	// timestamp instead of a bare string.
	encPassword := fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), s.ident.Password)

	form := url.Values{
		"username":             {s.ident.Username},
		"enc_password":         {encPassword},
		"queryParams":          {"{}"},
		"optIntoOneTap":        {"false"},
		"trustedDeviceRecords": {"{}"},
	}

	var reply loginReply
	if err := s.postLoginForm(ctx, loginPath, csrf, form, &reply); err != nil {
		return fmt.Errorf("identity %s: %w", s.ident.ID, err)
	}

	if reply.TwoFactorRequired {
		if err := s.answerTwoFactor(ctx, csrf, reply.TwoFactorInfo.TwoFactorIdentifier); err != nil {
			return err
		}
	} else if !reply.Authenticated {
		if reply.Message == "checkpoint_required" {
			return fmt.Errorf("identity %s: %w", s.ident.ID, ErrChallengeRequired)
		}
		return fmt.Errorf("identity %s: %w", s.ident.ID, ErrLoginFailed)
	}

	s.authed = true
	if err := s.saveCookies(); err != nil {
		// A session that cannot be saved still works for this run.
		s.logger.Warn("failed to save session cookies", slog.String("error", err.Error()))
	}
	return nil
}

// answerTwoFactor responds to the two-factor prompt with a live TOTP
// code derived from the identity's seed.
func (s *Session) answerTwoFactor(ctx context.Context, csrf, identifier string) error {
	code, err := s.ident.LiveOTP()
	if err != nil {
		return fmt.Errorf("identity %s: %w", s.ident.ID, err)
	}
	if code == "" {
		return fmt.Errorf("identity %s: %w", s.ident.ID, ErrTwoFactorRequired)
	}

	form := url.Values{
		"username":         {s.ident.Username},
		"verificationCode": {code},
		"identifier":       {identifier},
		// Method 3 is an authenticator-app TOTP code.
		"verification_method": {"3"},
	}

	var reply loginReply
	if err := s.postLoginForm(ctx, twoFactorPath, csrf, form, &reply); err != nil {
		return fmt.Errorf("identity %s: %w", s.ident.ID, err)
	}
	if !reply.Authenticated {
		return fmt.Errorf("identity %s: two-factor code rejected: %w", s.ident.ID, ErrLoginFailed)
	}
	return nil
}

// loginReply is the subset of Instagram's login response the flow needs.
type loginReply struct {
	Authenticated     bool   `json:"authenticated"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	Message           string `json:"message"`
	TwoFactorInfo     struct {
		TwoFactorIdentifier string `json:"two_factor_identifier"`
	} `json:"two_factor_info"`
}

// fetchCSRFToken loads the login page so the server sets the csrftoken
// cookie, then reads it back from the jar.
func (s *Session) fetchCSRFToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+loginPagePath, nil)
	if err != nil {
		return "", err
	}
	s.decorate(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch login page: %w", err)
	}
	// Body content is irrelevant, only the Set-Cookie headers matter.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, s.maxBody))
	resp.Body.Close()

	if token := s.cookieValue("csrftoken"); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("no csrftoken cookie after login page: %w", ErrLoginFailed)
}

// postLoginForm posts an authentication form and decodes the JSON reply.
func (s *Session) postLoginForm(ctx context.Context, path, csrf string, form url.Values, reply *loginReply) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	s.decorate(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRFToken", csrf)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", s.baseURL+loginPagePath)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login returned HTTP %d: %w", resp.StatusCode, ErrLoginFailed)
	}
	if err := json.Unmarshal(body, reply); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	return nil
}

// decorate sets the headers every request carries so the session is
// indistinguishable from the browser that created it.
func (s *Session) decorate(req *http.Request) {
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("X-IG-App-ID", igAppID)
}

// pace blocks until the identity's delay window since the previous
// request has passed: minimum delay plus uniform jitter up to the
// maximum. The first request of a session is not delayed.
func (s *Session) pace(ctx context.Context) error {
	if s.lastRequest.IsZero() {
		return nil
	}

	delay := s.ident.MinDelay
	if jitter := s.ident.MaxDelay - s.ident.MinDelay; jitter > 0 {
		delay += rand.N(jitter)
	}

	remaining := delay - time.Since(s.lastRequest)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cookieValue reads a cookie for the Instagram origin from the jar.
func (s *Session) cookieValue(name string) string {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return ""
	}
	for _, c := range s.jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// hasSessionCookie reports whether the jar holds a non-empty sessionid,
// the cookie Instagram issues on successful authentication.
func (s *Session) hasSessionCookie() bool {
	return s.cookieValue("sessionid") != ""
}

// sessionState is the on-disk cookie snapshot for one identity.
type sessionState struct {
	Identity string          `json:"identity"`
	SavedAt  time.Time       `json:"saved_at"`
	Cookies  []sessionCookie `json:"cookies"`
}

// sessionCookie is one persisted cookie. Only the fields needed to
// restore the jar are kept.
type sessionCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// saveCookies snapshots the jar to the session file with owner-only
// permissions. Cookies are credentials.
func (s *Session) saveCookies() error {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return err
	}

	state := sessionState{
		Identity: s.ident.ID,
		SavedAt:  time.Now().UTC(),
	}
	for _, c := range s.jar.Cookies(u) {
		state.Cookies = append(state.Cookies, sessionCookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.sessionFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.sessionFile, data, 0o600)
}

// loadCookies restores a saved cookie snapshot into the jar. Returns
// false when no usable snapshot exists; a corrupt file is treated the
// same way and the session falls through to a fresh login.
func (s *Session) loadCookies() bool {
	data, err := os.ReadFile(s.sessionFile)
	if err != nil {
		return false
	}

	var state sessionState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("ignoring corrupt session file", slog.String("file", s.sessionFile))
		return false
	}

	u, err := url.Parse(s.baseURL)
	if err != nil {
		return false
	}
	cookies := make([]*http.Cookie, 0, len(state.Cookies))
	for _, c := range state.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	s.jar.SetCookies(u, cookies)
	return len(cookies) > 0
}

// Close persists the session cookies so the next run can skip the login
// flow. The session is never logged out: an invalidated session would
// force a fresh credential login on every run.
func (s *Session) Close() error {
	if !s.authed {
		return nil
	}
	return s.saveCookies()
}
