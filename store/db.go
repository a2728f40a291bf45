package store

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
)

type db struct {
	writeConnection *sqlx.DB
	readConnection  *sqlx.DB
}

func newDB(conf *Config) *db {
	// use the json tag instead of the db tag
	conf.ReadConn.Mapper = reflectx.NewMapperFunc("json", strings.ToLower)
	conf.WriteConn.Mapper = reflectx.NewMapperFunc("json", strings.ToLower)

	return &db{
		writeConnection: conf.WriteConn,
		readConnection:  conf.ReadConn,
	}
}

// namedReturning runs a named query that returns a single row (e.g. INSERT ... RETURNING) and
// hands the positioned rows to scan. conn must be a *sqlx.DB or *sqlx.Tx for the json mapper to apply.
func (db *db) namedReturning(ctx context.Context, conn sqlx.ExtContext, query string, arg interface{}, scan func(*sqlx.Rows) error) error {
	rows, err := sqlx.NamedQueryContext(ctx, conn, query, arg)
	if err != nil {
		return err
	}
	// Let's make sure we don't have a memory leak!! :)
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return errNoRowReturned
	}
	return scan(rows)
}

func (db *db) writeConn() *sqlx.DB {
	return db.writeConnection
}

func (db *db) readConn() *sqlx.DB {
	return db.readConnection
}
