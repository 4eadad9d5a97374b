package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/HansBhatia/genderscan/internal/model"
)

// webProfileReply is the subset of the web_profile_info response that a
// lookup consumes. A null user with HTTP 200 means the account does not
// exist.
type webProfileReply struct {
	Data struct {
		User *struct {
			FullName        string `json:"full_name"`
			IsVerified      bool   `json:"is_verified"`
			ProfilePicURL   string `json:"profile_pic_url"`
			ProfilePicURLHD string `json:"profile_pic_url_hd"`
		} `json:"user"`
	} `json:"data"`
	Status string `json:"status"`
}

// Lookup fetches one profile. It always returns a FetchResult, never an
// error: every failure mode (not found, expired session, HTTP error,
// undecodable body, timeout, transport fault) is encoded on the result so
// one bad username can never abort a batch.
//
// A lookup that hits an expired session retries once after a fresh
// credential login; the fallback is spent for the session's lifetime.
func (s *Session) Lookup(ctx context.Context, username string) *model.FetchResult {
	result := &model.FetchResult{
		Username:  username,
		FetchedBy: s.ident.ID,
	}

	if err := s.pace(ctx); err != nil {
		return fail(result, model.FetchErrTimeout, "cancelled while pacing: "+err.Error())
	}

	reply, errKind, detail := s.fetchProfile(ctx, username)
	if errKind == model.FetchErrLogin && !s.relogged {
		s.relogged = true
		s.logger.Warn("session rejected, attempting fresh login",
			slog.String("username", username))
		if err := s.freshLogin(ctx); err != nil {
			return fail(result, model.FetchErrLogin, "relogin failed: "+err.Error())
		}
		reply, errKind, detail = s.fetchProfile(ctx, username)
	}
	if errKind != "" {
		return fail(result, errKind, detail)
	}

	user := reply.Data.User
	if user == nil {
		return fail(result, model.FetchErrNotFound, "account does not exist")
	}

	result.Exists = true
	result.IsVerified = user.IsVerified
	result.FullName = user.FullName
	result.AvatarURL = user.ProfilePicURLHD
	if result.AvatarURL == "" {
		result.AvatarURL = user.ProfilePicURL
	}

	// Avatar failures degrade to a name-only result instead of failing
	// the lookup.
	if result.AvatarURL != "" {
		avatar, mime, err := s.downloadAvatar(ctx, result.AvatarURL)
		if err != nil {
			s.logger.Warn("avatar download failed",
				slog.String("username", username),
				slog.String("error", err.Error()))
		} else {
			result.Avatar = avatar
			result.AvatarMIME = mime
		}
	}

	return result
}

// fetchProfile performs the profile API request and decodes the reply.
// Failures come back as an error kind + detail pair, empty kind on
// success.
func (s *Session) fetchProfile(ctx context.Context, username string) (*webProfileReply, string, string) {
	endpoint := s.baseURL + profilePath + "?username=" + url.QueryEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, model.FetchErrRequest, err.Error()
	}
	s.decorate(req)

	resp, err := s.client.Do(req)
	s.lastRequest = time.Now()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, model.FetchErrTimeout, "fetch timed out"
		}
		return nil, model.FetchErrRequest, err.Error()
	}
	defer resp.Body.Close()

	// An expired session gets bounced to the login page by redirect, or
	// refused outright.
	if strings.HasPrefix(resp.Request.URL.Path, loginPagePath) {
		return nil, model.FetchErrLogin, "redirected to login page"
	}
	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to decode.
	case http.StatusNotFound:
		return nil, model.FetchErrNotFound, "account does not exist"
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, model.FetchErrLogin, fmt.Sprintf("session rejected with HTTP %d", resp.StatusCode)
	default:
		return nil, model.FetchErrHTTP, fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, model.FetchErrTimeout, "fetch timed out reading body"
		}
		return nil, model.FetchErrRequest, "read body: "+err.Error()
	}

	var reply webProfileReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, model.FetchErrDecode, "undecodable profile response"
	}
	return &reply, "", ""
}

// downloadAvatar fetches the profile picture, capped at the configured
// body size. The MIME type comes from the Content-Type header, with
// sniffing as fallback.
func (s *Session) downloadAvatar(ctx context.Context, avatarURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, avatarURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("avatar returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty avatar body")
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}

// fail stamps a failure kind and detail on the result and returns it.
func fail(result *model.FetchResult, kind, detail string) *model.FetchResult {
	result.ErrKind = kind
	result.ErrDetail = detail
	return result
}
