package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
)

var ErrSessionNotFound = errors.New("session not found")

const DefaultSessionTTL = 24 * time.Hour

// Store owns the per session lead lists. Lists never outlive their session.
type Store interface {
	// CreateSession starts a session whose three lists are pre-seeded
	CreateSession(ctx context.Context) (*Session, error)
	// LoadSession returns the session with all of its lists
	LoadSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error

	List(ctx context.Context, id string, kind leadgen.ListKind) ([]leadgen.Lead, error)
	// AddLead appends to the list and returns the list after the write
	AddLead(ctx context.Context, id string, kind leadgen.ListKind, lead leadgen.Lead) ([]leadgen.Lead, error)
	// RemoveLead drops the lead at index and returns the list after the write
	RemoveLead(ctx context.Context, id string, kind leadgen.ListKind, index int) ([]leadgen.Lead, error)

	// PurgeExpired deletes every expired session and returns how many were removed
	PurgeExpired(ctx context.Context) (int64, error)
}

type Session struct {
	ID        string                               `json:"id"`
	CreatedAt time.Time                            `json:"created_at"`
	ExpiresAt time.Time                            `json:"expires_at"`
	Lists     map[leadgen.ListKind][]leadgen.Lead `json:"lists"`
}

type Config struct {
	ReadConn  *sqlx.DB
	WriteConn *sqlx.DB
	Redis     *redis.Client

	SessionTTL  time.Duration   // 0 = DefaultSessionTTL
	SeedLeads   []leadgen.Lead  // nil = leadgen.SampleLeads()
	Logger      *logrus.Entry
	Debugger    bool
	ServiceName string // cache key namespace; defaults to "leadgen"

	now func() time.Time
}

func (c *Config) parse() {
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.SeedLeads == nil {
		c.SeedLeads = leadgen.SampleLeads()
	}
	if c.Logger == nil {
		c.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if c.ServiceName == "" {
		c.ServiceName = "leadgen"
	}
	if c.now == nil {
		c.now = time.Now
	}
}

func (c *Config) debugf(s string, args ...interface{}) {
	if c.Debugger {
		c.Logger.Debugf(s, args...)
	}
}

func copyLeads(leads []leadgen.Lead) []leadgen.Lead {
	out := make([]leadgen.Lead, len(leads))
	copy(out, leads)
	return out
}
