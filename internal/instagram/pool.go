package instagram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/HansBhatia/genderscan/internal/config"
	"github.com/HansBhatia/genderscan/internal/identity"
)

// Pool holds one logged-in session per roster identity, in roster order,
// so session i serves the same usernames that identity i is assigned.
// The slice is built once and read-only afterwards; each session is then
// owned exclusively by its fetch worker.
type Pool struct {
	sessions []*Session
}

// NewPool constructs and authenticates a session for every identity in
// the roster. Logins run sequentially: parallel credential logins from
// one machine are exactly the signature that gets accounts flagged.
// Any login failure aborts pool construction, mirroring how a run with
// a partially usable roster would silently skew identity routing.
func NewPool(ctx context.Context, cfg *config.Config, roster *identity.Roster, logger *slog.Logger) (*Pool, error) {
	identities := roster.Identities()
	sessions := make([]*Session, 0, len(identities))

	for _, ident := range identities {
		session, err := NewSession(cfg, ident, logger)
		if err != nil {
			closeAll(sessions)
			return nil, err
		}
		if err := session.Login(ctx); err != nil {
			closeAll(sessions)
			return nil, fmt.Errorf("login pool: %w", err)
		}
		sessions = append(sessions, session)
	}

	logger.Info("session pool ready", slog.Int("sessions", len(sessions)))
	return &Pool{sessions: sessions}, nil
}

// Session returns the session at roster position i.
func (p *Pool) Session(i int) *Session {
	return p.sessions[i]
}

// Size returns the number of sessions in the pool.
func (p *Pool) Size() int {
	return len(p.sessions)
}

// Close persists every session's cookies. All sessions are closed even
// when some fail; the errors are joined.
func (p *Pool) Close() error {
	return closeAll(p.sessions)
}

func closeAll(sessions []*Session) error {
	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", s.ident.ID, err))
		}
	}
	return errors.Join(errs...)
}
