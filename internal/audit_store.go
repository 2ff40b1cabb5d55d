package internal

import (
	"database/sql"
	"log"

	_ "github.com/go-sql-driver/mysql"
)

// AuditStore is an optional, config-gated log of group joins, handshake
// outcomes, and client deletion reasons. It is read-only historical data
// never consulted by the hot path — the fan-out coordinator never blocks
// on it (§9 supplemented features).
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore opens a MySQL connection for the sfu_events audit log.
func NewAuditStore(dsn string) (*AuditStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, NewError(err, ErrCodeDatabase, "audit_store", "open")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewError(err, ErrCodeDatabase, "audit_store", "ping")
	}

	log.Println("✅ audit store connected")
	return &AuditStore{db: db}, nil
}

// RecordJoin logs a client's group join.
func (a *AuditStore) RecordJoin(correlationID, addr, groupID string) {
	if a == nil {
		return
	}
	const q = `INSERT INTO sfu_events (correlation_id, addr, event, detail, occurred_at) VALUES (?, ?, 'join_group', ?, NOW())`
	if _, err := a.db.Exec(q, correlationID, addr, groupID); err != nil {
		log.Printf("❌ audit store: failed to record join: %v", err)
	}
}

// RecordHandshakeOutcome logs a DTLS handshake success or failure.
func (a *AuditStore) RecordHandshakeOutcome(correlationID, addr, outcome string) {
	if a == nil {
		return
	}
	const q = `INSERT INTO sfu_events (correlation_id, addr, event, detail, occurred_at) VALUES (?, ?, 'handshake', ?, NOW())`
	if _, err := a.db.Exec(q, correlationID, addr, outcome); err != nil {
		log.Printf("❌ audit store: failed to record handshake outcome: %v", err)
	}
}

// RecordDeletion logs a client deletion and the reason that triggered it.
func (a *AuditStore) RecordDeletion(correlationID, addr, reason string) {
	if a == nil {
		return
	}
	const q = `INSERT INTO sfu_events (correlation_id, addr, event, detail, occurred_at) VALUES (?, ?, 'deleted', ?, NOW())`
	if _, err := a.db.Exec(q, correlationID, addr, reason); err != nil {
		log.Printf("❌ audit store: failed to record deletion: %v", err)
	}
}

// RecentEvents retrieves the most recent audit events, newest first, for
// a debugging endpoint.
func (a *AuditStore) RecentEvents(limit int) ([]AuditEvent, error) {
	if a == nil {
		return nil, nil
	}
	const q = `SELECT correlation_id, addr, event, detail, occurred_at FROM sfu_events ORDER BY occurred_at DESC LIMIT ?`
	rows, err := a.db.Query(q, limit)
	if err != nil {
		return nil, NewError(err, ErrCodeDatabase, "audit_store", "query")
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		if err := rows.Scan(&e.CorrelationID, &e.Addr, &e.Event, &e.Detail, &e.OccurredAt); err != nil {
			log.Printf("❌ audit store: failed to scan event: %v", err)
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

// AuditEvent is one row of the sfu_events audit log.
type AuditEvent struct {
	CorrelationID string
	Addr          string
	Event         string
	Detail        string
	OccurredAt    string
}

// Close closes the MySQL connection.
func (a *AuditStore) Close() error {
	if a == nil {
		return nil
	}
	log.Println("✅ audit store connection closed")
	return a.db.Close()
}
