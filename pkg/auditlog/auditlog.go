// Package auditlog persists rule session events into SQLite.
//
// A Logger is a generic event listener: register it on a session and every
// fact, agenda and process event is appended to the events table. Writes
// happen synchronously inside the raising mutation; write failures are
// logged and never propagate into the session.
//
// Usage:
//
//	al, _ := auditlog.New(auditlog.Config{Path: "/tmp/audit.db", Logger: logger})
//	sess.AddEventListener(al)
//	records, _ := al.Events(ctx, auditlog.Query{Type: event.TypeAfterMatchFired})
package auditlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/harun/rulesession/pkg/event"
)

// Config configures a Logger.
type Config struct {
	Path   string
	Logger zerolog.Logger
	// Types restricts which events are stored; empty stores all.
	Types []event.Type
}

// Record is one stored event.
type Record struct {
	ID         int64
	SessionID  string
	Type       event.Type
	FactHandle string
	Rule       string
	Attributes map[string]any
	CreatedAt  time.Time
}

// Query filters Events. Zero fields match everything.
type Query struct {
	SessionID string
	Type      event.Type
	Limit     int
}

// Logger is an event.EventListener backed by SQLite.
type Logger struct {
	db     *sql.DB
	logger zerolog.Logger
	types  map[event.Type]bool
	mu     sync.Mutex
	insert *sql.Stmt
	closed atomic.Bool
}

var _ event.EventListener = (*Logger)(nil)

// New opens (or creates) the database at cfg.Path.
func New(cfg Config) (*Logger, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("audit log path is required")
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	stmt, err := db.Prepare(`INSERT INTO events (session_id, type, fact_handle, rule, attributes, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	l := &Logger{
		db:     db,
		logger: cfg.Logger.With().Str("component", "auditlog").Logger(),
		insert: stmt,
	}
	if len(cfg.Types) > 0 {
		l.types = make(map[event.Type]bool, len(cfg.Types))
		for _, t := range cfg.Types {
			l.types[t] = true
		}
	}

	l.logger.Info().Str("path", cfg.Path).Msg("Audit log opened")
	return l, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			type TEXT NOT NULL,
			fact_handle TEXT NOT NULL DEFAULT '',
			rule TEXT NOT NULL DEFAULT '',
			attributes TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
		CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
	`)
	return err
}

// OnEvent stores ev.
func (l *Logger) OnEvent(ev event.Event) {
	if l.closed.Load() {
		return
	}
	if l.types != nil && !l.types[ev.Type()] {
		return
	}

	rec := describe(ev)
	attrs, err := json.Marshal(rec.Attributes)
	if err != nil {
		l.logger.Warn().Err(err).Str("type", string(ev.Type())).Msg("Failed to encode event attributes")
		attrs = []byte("{}")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed.Load() {
		return
	}
	if _, err := l.insert.Exec(rec.SessionID, string(rec.Type), rec.FactHandle, rec.Rule, string(attrs), time.Now().UnixNano()); err != nil {
		l.logger.Warn().Err(err).Str("type", string(ev.Type())).Msg("Failed to store event")
	}
}

// Events returns stored events in insertion order.
func (l *Logger) Events(ctx context.Context, q Query) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if q.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, q.SessionID)
	}
	if q.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(q.Type))
	}

	query := "SELECT id, session_id, type, fact_handle, rule, attributes, created_at FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r     Record
			typ   string
			attrs string
			nanos int64
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &typ, &r.FactHandle, &r.Rule, &attrs, &nanos); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		r.Type = event.Type(typ)
		r.CreatedAt = time.Unix(0, nanos)
		if err := json.Unmarshal([]byte(attrs), &r.Attributes); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database. Events raised afterwards are dropped.
func (l *Logger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Info().Msg("Closing audit log")
	return errors.Join(l.insert.Close(), l.db.Close())
}
