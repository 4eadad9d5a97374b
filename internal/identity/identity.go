package identity

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
	"gopkg.in/yaml.v3"
)

// Default per-identity pacing bounds applied when the roster does not set
// its own. Instagram tolerates a logged-in browser session polling every
// few seconds; anything much faster draws challenges.
const (
	DefaultMinDelay = 3 * time.Second
	DefaultMaxDelay = 7 * time.Second
)

// Identity is one Instagram account the fetch stage can operate as.
// Identities are immutable after roster load; everything that mutates at
// runtime (cookies, pacing clock) lives in the session that owns the
// identity, not here.
type Identity struct {
	// ID names the identity in logs, fetch attribution, and session file
	// names. Defaults to Username when the roster omits it.
	ID string

	// Username is the Instagram login name.
	Username string

	// Password is the Instagram login password.
	Password string

	// Proxy is the egress proxy URL for this identity's traffic
	// (socks5://, http://, https://; a bare host:port means SOCKS5).
	// Empty means direct connection.
	Proxy string

	// OTPSeed is the base32 TOTP seed for accounts with two-factor
	// authentication. Empty means the account has no 2FA.
	OTPSeed string

	// MinDelay and MaxDelay bound the pause between this identity's
	// consecutive requests. The session sleeps MinDelay plus random
	// jitter up to MaxDelay.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// LiveOTP generates the identity's current TOTP code. It must be called
// at dispatch time, not cached: codes rotate every 30 seconds and a stale
// code fails the login. Returns ("", nil) for identities without a seed.
func (id Identity) LiveOTP() (string, error) {
	if id.OTPSeed == "" {
		return "", nil
	}
	// Normalize the way authenticator apps do: strip spaces, upper-case.
	seed := strings.ToUpper(strings.ReplaceAll(id.OTPSeed, " ", ""))
	code, err := totp.GenerateCode(seed, time.Now())
	if err != nil {
		return "", fmt.Errorf("%w: identity %s: %s", ErrInvalidOTPSeed, id.ID, err)
	}
	return code, nil
}

// Roster is the ordered, immutable set of identities a run fetches with.
// Ordering matters: Assign routes usernames to identities positionally,
// so two runs over the same roster file route the same way.
type Roster struct {
	identities []Identity
}

// rosterFile is the YAML wire format of the roster.
type rosterFile struct {
	Identities []rosterEntry `yaml:"identities"`
}

// rosterEntry is one identity as written in the roster file. Delays are
// duration strings ("3s", "500ms") so the file reads like the flags do.
type rosterEntry struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Proxy    string `yaml:"proxy"`
	OTPSeed  string `yaml:"otpSeed"`
	MinDelay string `yaml:"minDelay"`
	MaxDelay string `yaml:"maxDelay"`
}

// LoadRoster reads and validates an identity roster from a YAML file.
// Every validation failure is fatal: a half-valid roster would skew the
// positional routing that checkpointed runs rely on.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided roster path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRosterNotFound, path)
		}
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}

	identities := make([]Identity, 0, len(rf.Identities))
	for i, entry := range rf.Identities {
		id, err := entry.toIdentity()
		if err != nil {
			return nil, fmt.Errorf("roster entry %d: %w", i, err)
		}
		identities = append(identities, id)
	}

	return NewRoster(identities)
}

// toIdentity converts a wire entry into a validated Identity.
func (e rosterEntry) toIdentity() (Identity, error) {
	if e.Username == "" || e.Password == "" {
		return Identity{}, fmt.Errorf("%w: username and password are required", ErrMissingCredential)
	}

	id := Identity{
		ID:       e.ID,
		Username: e.Username,
		Password: e.Password,
		Proxy:    e.Proxy,
		OTPSeed:  e.OTPSeed,
		MinDelay: DefaultMinDelay,
		MaxDelay: DefaultMaxDelay,
	}
	if id.ID == "" {
		id.ID = e.Username
	}

	if e.MinDelay != "" {
		d, err := time.ParseDuration(e.MinDelay)
		if err != nil {
			return Identity{}, fmt.Errorf("parse minDelay: %w", err)
		}
		id.MinDelay = d
	}
	if e.MaxDelay != "" {
		d, err := time.ParseDuration(e.MaxDelay)
		if err != nil {
			return Identity{}, fmt.Errorf("parse maxDelay: %w", err)
		}
		id.MaxDelay = d
	}
	if id.MinDelay < 0 || id.MaxDelay < id.MinDelay {
		return Identity{}, fmt.Errorf("%w: identity %s", ErrInvalidDelayRange, id.ID)
	}

	return id, nil
}

// NewRoster builds a roster from already-constructed identities,
// applying the same validation as LoadRoster. Useful for tests and for
// callers that assemble identities programmatically.
func NewRoster(identities []Identity) (*Roster, error) {
	if len(identities) == 0 {
		return nil, ErrEmptyRoster
	}

	seen := make(map[string]bool, len(identities))
	for _, id := range identities {
		if id.Username == "" || id.Password == "" {
			return nil, fmt.Errorf("%w: identity %q", ErrMissingCredential, id.ID)
		}
		if seen[id.ID] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateIdentity, id.ID)
		}
		seen[id.ID] = true
	}

	// Copy so later mutation of the caller's slice cannot reorder routing.
	owned := make([]Identity, len(identities))
	copy(owned, identities)
	return &Roster{identities: owned}, nil
}

// Size returns the number of identities. The fetch stage runs exactly
// this many workers.
func (r *Roster) Size() int {
	return len(r.identities)
}

// Assign returns the identity responsible for the username at the given
// batch ordinal: identities[ordinal mod Size()].
//
// Design decision: assignment is a pure function of the ordinal rather
// than a draw from a shared round-robin counter. Concurrent callers need
// no lock, the routing is reproducible run to run, and a test can assert
// exactly which identity serves which position.
func (r *Roster) Assign(ordinal int) Identity {
	i := ordinal % len(r.identities)
	if i < 0 {
		i += len(r.identities)
	}
	return r.identities[i]
}

// Identities returns the identities in roster order. The returned slice
// is shared; callers must not modify it.
func (r *Roster) Identities() []Identity {
	return r.identities
}
