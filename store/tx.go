package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
)

// tx is a write transaction on one session. Lists marked with evict are dropped from the cache
// once the transaction commits, never before.
type tx struct {
	*sqlx.Tx
	p         *Postgres
	sessionID string
	evicted   []leadgen.ListKind
}

func (p *Postgres) begin(ctx context.Context, sessionID string) (*tx, error) {
	t, err := p.db.writeConn().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &tx{
		Tx:        t,
		p:         p,
		sessionID: sessionID,
	}, nil
}

func (t *tx) evict(kinds ...leadgen.ListKind) {
	t.evicted = append(t.evicted, kinds...)
}

// end commits and then invalidates the cached lists. A failed invalidation is logged, not
// returned; the write itself went through.
func (t *tx) end(ctx context.Context) error {
	if err := t.Commit(); err != nil {
		return err
	}
	if len(t.evicted) > 0 {
		t.p.invalidate(ctx, t.sessionID, t.evicted...)
	}
	return nil
}
