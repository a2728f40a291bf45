package store

import (
	"errors"
	"fmt"
	"strings"
)

// validateCacheKey checks that a key template has the `service:<name>|<table>|field:%v` shape
// and returns the placeholder fields in order.
func validateCacheKey(key string) ([]string, error) {
	parts := strings.Split(key, "|")
	if len(parts) <= 2 {
		return nil, errors.New("invalid cache key; want `service:%s|table|field:%v`")
	}
	if !strings.HasPrefix(parts[0], "service:") {
		return nil, errors.New("invalid cache key; must start with `service:` in the first pipe")
	}
	if strings.Contains(parts[1], `%v`) {
		return nil, errors.New("invalid cache key; the table pipe must not hold a placeholder")
	}

	fields := []string{}
	for _, p := range parts[2:] {
		if !strings.Contains(p, ":%v") {
			continue
		}
		kv := strings.Split(p, ":")
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid cache key; pipe %q must be `field:%%v`", p)
		}
		fields = append(fields, kv[0])
	}
	return fields, nil
}

type namedQuery struct {
	name  string
	query string
	row   interface{}
}

var namedQueries = []namedQuery{
	{"sessionsInsert", sessionsInsert, sessions{}},
	{"sessionLeadsInsert", sessionLeadsInsert, sessionLeads{}},
}

// validateQueries binds every named query against its row struct through the json mapper, so a
// parameter without a matching field fails at startup rather than on the first write.
func (db *db) validateQueries(queries []namedQuery) error {
	for _, q := range queries {
		if _, _, err := db.writeConn().BindNamed(q.query, q.row); err != nil {
			return fmt.Errorf("query %s: %w", q.name, err)
		}
	}
	return nil
}

func (p *Postgres) validate() error {
	fields, err := validateCacheKey(cacheKeyLeads)
	if err != nil {
		return err
	}
	if len(fields) != 2 {
		return fmt.Errorf("cache key %q must be keyed by session_id and kind", cacheKeyLeads)
	}
	return p.db.validateQueries(namedQueries)
}
