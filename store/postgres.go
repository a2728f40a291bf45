package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
)

var errNoRowReturned = errors.New("query did not return a row")

// Postgres keeps sessions in postgres and caches every list in redis until it is written to
// or its session expires. Redis is optional.
type Postgres struct {
	conf  *Config
	db    *db
	cache *cache
}

func NewPostgres(conf *Config) (*Postgres, error) {
	if conf == nil || conf.ReadConn == nil || conf.WriteConn == nil {
		return nil, errors.New("store: read and write connections are required")
	}
	conf.parse()

	p := &Postgres{
		conf: conf,
		db:   newDB(conf),
	}
	if conf.Redis != nil {
		p.cache = newCache(conf.Redis, conf.ServiceName, conf.SessionTTL)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return p, nil
}

// Migrate creates the tables if they don't exist yet
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.writeConn().ExecContext(ctx, Schema)
	return err
}

func (p *Postgres) CreateSession(ctx context.Context) (*Session, error) {
	now := p.conf.now().UTC()
	row := sessions{
		SessionID: uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(p.conf.SessionTTL),
	}

	tx, err := p.begin(ctx, row.SessionID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	err = p.db.namedReturning(ctx, tx.Tx, sessionsInsert, row, func(rows *sqlx.Rows) error {
		return rows.StructScan(&row)
	})
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	s := &Session{
		ID:        row.SessionID,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
		Lists:     make(map[leadgen.ListKind][]leadgen.Lead, len(leadgen.ListKinds)),
	}
	for _, kind := range leadgen.ListKinds {
		for _, lead := range p.conf.SeedLeads {
			if err := p.insertLead(ctx, tx.Tx, row.SessionID, kind, lead); err != nil {
				return nil, err
			}
		}
		s.Lists[kind] = copyLeads(p.conf.SeedLeads)
	}

	if err := tx.end(ctx); err != nil {
		return nil, err
	}

	p.conf.debugf("postgres: created session %s", s.ID)
	return s, nil
}

func (p *Postgres) LoadSession(ctx context.Context, id string) (*Session, error) {
	row, err := p.session(ctx, p.db.readConn(), id, false)
	if err != nil {
		return nil, err
	}

	lists := make([][]leadgen.Lead, len(leadgen.ListKinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range leadgen.ListKinds {
		i, kind := i, kind
		g.Go(func() error {
			leads, err := p.list(gctx, row, kind)
			lists[i] = leads
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Session{
		ID:        row.SessionID,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
		Lists:     make(map[leadgen.ListKind][]leadgen.Lead, len(leadgen.ListKinds)),
	}
	for i, kind := range leadgen.ListKinds {
		s.Lists[kind] = lists[i]
	}
	return s, nil
}

func (p *Postgres) DeleteSession(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrSessionNotFound
	}

	res, err := p.db.writeConn().ExecContext(ctx, sessionsDelete, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}

	p.invalidate(ctx, id)
	return nil
}

func (p *Postgres) List(ctx context.Context, id string, kind leadgen.ListKind) ([]leadgen.Lead, error) {
	if _, err := leadgen.ParseListKind(string(kind)); err != nil {
		return nil, err
	}
	row, err := p.session(ctx, p.db.readConn(), id, false)
	if err != nil {
		return nil, err
	}
	return p.list(ctx, row, kind)
}

func (p *Postgres) AddLead(ctx context.Context, id string, kind leadgen.ListKind, lead leadgen.Lead) ([]leadgen.Lead, error) {
	if _, err := leadgen.ParseListKind(string(kind)); err != nil {
		return nil, err
	}

	tx, err := p.begin(ctx, id)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := p.session(ctx, tx, id, true); err != nil {
		return nil, err
	}
	if err := p.insertLead(ctx, tx.Tx, id, kind, lead); err != nil {
		return nil, err
	}
	rows, err := p.selectLeads(ctx, tx, id, kind)
	if err != nil {
		return nil, err
	}

	tx.evict(kind)
	if err := tx.end(ctx); err != nil {
		return nil, err
	}
	return leadsFromRows(rows), nil
}

func (p *Postgres) RemoveLead(ctx context.Context, id string, kind leadgen.ListKind, index int) ([]leadgen.Lead, error) {
	if _, err := leadgen.ParseListKind(string(kind)); err != nil {
		return nil, err
	}

	tx, err := p.begin(ctx, id)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := p.session(ctx, tx, id, true); err != nil {
		return nil, err
	}
	rows, err := p.selectLeads(ctx, tx, id, kind)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(rows) {
		return nil, fmt.Errorf("%w: %d (len %d)", leadgen.ErrIndexOutOfRange, index, len(rows))
	}
	if _, err := tx.ExecContext(ctx, sessionLeadsDelete, rows[index].LeadID); err != nil {
		return nil, err
	}

	tx.evict(kind)
	if err := tx.end(ctx); err != nil {
		return nil, err
	}
	rows = append(rows[:index:index], rows[index+1:]...)
	return leadsFromRows(rows), nil
}

func (p *Postgres) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := p.db.writeConn().ExecContext(ctx, sessionsDeleteExpired, p.conf.now().UTC())
	if err != nil {
		return 0, err
	}
	// cached lists of purged sessions expire on their own; their TTL ends with the session
	return res.RowsAffected()
}

// session fetches a live session row. forUpdate locks it for the rest of the transaction.
func (p *Postgres) session(ctx context.Context, q sqlx.QueryerContext, id string, forUpdate bool) (sessions, error) {
	row := sessions{}
	if _, err := uuid.Parse(id); err != nil {
		return row, ErrSessionNotFound
	}

	query := sessionsGetLiveByID
	if forUpdate {
		query = sessionsGetLiveByIDForUpdate
	}

	err := sqlx.GetContext(ctx, q, &row, query, id, p.conf.now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return row, ErrSessionNotFound
	}
	return row, err
}

// list reads a list through the cache
func (p *Postgres) list(ctx context.Context, row sessions, kind leadgen.ListKind) ([]leadgen.Lead, error) {
	var (
		key     string
		version int64
		fill    = p.cache != nil
	)
	if p.cache != nil {
		key = p.cache.leadsKey(row.SessionID, kind)

		leads := []leadgen.Lead{}
		err := p.cache.get(ctx, key, &leads)
		if err == nil {
			p.conf.debugf("postgres: %s found in cache", key)
			return leads, nil
		}
		if err != redis.Nil {
			// the database is the source of truth; keep serving without the cache
			p.conf.Logger.WithError(err).WithField("key", key).Warn("cache get failed")
		}

		version, err = p.cache.version(ctx, key)
		if err != nil {
			p.conf.Logger.WithError(err).WithField("key", key).Warn("cache version failed")
			fill = false
		}
	}

	rows, err := p.selectLeads(ctx, p.db.readConn(), row.SessionID, kind)
	if err != nil {
		return nil, err
	}
	leads := leadsFromRows(rows)

	if fill {
		ttl := row.ExpiresAt.Sub(p.conf.now())
		if ttl > 0 {
			err := p.cache.fill(ctx, key, version, leads, ttl)
			switch {
			case errors.Is(err, errStaleFill):
				p.conf.debugf("postgres: %s changed while reading, not cached", key)
			case err != nil:
				p.conf.Logger.WithError(err).WithField("key", key).Warn("cache set failed")
			}
		}
	}
	return leads, nil
}

func (p *Postgres) selectLeads(ctx context.Context, q sqlx.QueryerContext, id string, kind leadgen.ListKind) ([]sessionLeads, error) {
	rows := []sessionLeads{}
	err := sqlx.SelectContext(ctx, q, &rows, sessionLeadsGetByList, id, string(kind))
	return rows, err
}

func (p *Postgres) insertLead(ctx context.Context, tx *sqlx.Tx, id string, kind leadgen.ListKind, lead leadgen.Lead) error {
	row := sessionLeads{
		SessionID:     id,
		Kind:          string(kind),
		Name:          lead.Name,
		Company:       lead.Company,
		Title:         lead.Title,
		Email:         lead.Email,
		AnnualRevenue: lead.AnnualRevenue,
	}
	err := p.db.namedReturning(ctx, tx, sessionLeadsInsert, row, func(rows *sqlx.Rows) error {
		return rows.Scan(&row.LeadID)
	})
	if err != nil {
		return fmt.Errorf("insert %s lead: %w", kind, err)
	}
	return nil
}

func (p *Postgres) invalidate(ctx context.Context, id string, kinds ...leadgen.ListKind) {
	if p.cache == nil {
		return
	}
	if err := p.cache.invalidate(ctx, id, kinds...); err != nil {
		p.conf.Logger.WithError(err).WithField("session_id", id).Error("cache invalidation failed; lists may be stale until they expire")
	}
}

func leadsFromRows(rows []sessionLeads) []leadgen.Lead {
	out := make([]leadgen.Lead, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.lead())
	}
	return out
}
