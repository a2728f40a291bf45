package store

import (
	"time"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
)

// Schema creates the tables the postgres store needs. Leads go away with their session.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  UUID PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS session_leads (
	lead_id         BIGSERIAL PRIMARY KEY,
	session_id      UUID NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
	kind            TEXT NOT NULL,
	position        INTEGER NOT NULL,
	name            TEXT NOT NULL,
	company         TEXT NOT NULL,
	title           TEXT NOT NULL,
	email           TEXT NOT NULL,
	annual_revenue  BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_session_leads_list ON session_leads (session_id, kind, position);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at);
`

type sessions struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sessionLeads struct {
	LeadID        int64  `json:"lead_id"`
	SessionID     string `json:"session_id"`
	Kind          string `json:"kind"`
	Position      int32  `json:"position"`
	Name          string `json:"name"`
	Company       string `json:"company"`
	Title         string `json:"title"`
	Email         string `json:"email"`
	AnnualRevenue int64  `json:"annual_revenue"`
}

func (r sessionLeads) lead() leadgen.Lead {
	return leadgen.Lead{
		Name:          r.Name,
		Company:       r.Company,
		Title:         r.Title,
		Email:         r.Email,
		AnnualRevenue: r.AnnualRevenue,
	}
}

const sessionsInsert = `INSERT INTO sessions (session_id, created_at, expires_at)
VALUES (:session_id, :created_at, :expires_at) RETURNING session_id, created_at, expires_at`

// FOR UPDATE serializes writers of one session so appends never share a position
const sessionsGetLiveByIDForUpdate = `SELECT session_id, created_at, expires_at FROM sessions
WHERE session_id=$1 AND expires_at > $2 FOR UPDATE`

const sessionsGetLiveByID = `SELECT session_id, created_at, expires_at FROM sessions
WHERE session_id=$1 AND expires_at > $2`

const sessionsDelete = `DELETE FROM sessions WHERE session_id=$1`

const sessionsDeleteExpired = `DELETE FROM sessions WHERE expires_at <= $1`

const sessionLeadsInsert = `INSERT INTO session_leads (session_id, kind, position, name, company, title, email, annual_revenue)
VALUES (:session_id, :kind,
	(SELECT COALESCE(MAX(position), 0) + 1 FROM session_leads WHERE session_id=:session_id AND kind=:kind),
	:name, :company, :title, :email, :annual_revenue) RETURNING lead_id`

const sessionLeadsGetByList = `SELECT lead_id, session_id, kind, position, name, company, title, email, annual_revenue
FROM session_leads WHERE session_id=$1 AND kind=$2 ORDER BY position`

const sessionLeadsDelete = `DELETE FROM session_leads WHERE lead_id=$1`
