// Package session owns the embedded engine: it opens DuckDB with the
// configured resources, registers the pipeline's functions and loads source
// files into the initial working table.
//
// A Session pins a single connection. Every table generation, setting and
// registered function lives on that connection, so the session is the
// explicit execution context handed to the rest of the program.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" database/sql driver

	"claimsfe/internal/frame"
	"claimsfe/internal/udf"
)

// DefaultThreads is the degree of parallelism used when Config.Threads is 0.
const DefaultThreads = 16

// ErrSourceNotFound is returned by Load when the input path is missing or
// unreadable.
var ErrSourceNotFound = errors.New("source not found")

// Config holds engine resource settings.
type Config struct {
	// Database is the DuckDB database path. Empty means in-memory.
	Database string

	// Threads bounds the engine's worker threads (DefaultThreads when 0).
	Threads int

	// MemoryLimit caps engine memory, e.g. "4GB". Empty keeps the engine default.
	MemoryLimit string

	// TempDirectory is where the engine spills when it exceeds MemoryLimit.
	TempDirectory string

	// PreserveInsertionOrder keeps scan order stable (default true).
	PreserveInsertionOrder *bool

	// Settings are extra engine options applied with SET key = 'value'.
	Settings map[string]string
}

// Session is an open engine with one pinned connection.
type Session struct {
	db   *sql.DB
	conn *sql.Conn
	cfg  Config
}

var settingName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open starts the engine, applies cfg and registers the pipeline functions.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Threads <= 0 {
		cfg.Threads = DefaultThreads
	}

	db, err := sql.Open("duckdb", cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("session: open: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: connect: %w", err)
	}
	s := &Session{db: db, conn: conn, cfg: cfg}

	stmts, err := settingStatements(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			s.Close()
			return nil, fmt.Errorf("session: %s: %w", stmt, err)
		}
	}
	if err := udf.Register(ctx, conn); err != nil {
		s.Close()
		return nil, fmt.Errorf("session: %w", err)
	}
	return s, nil
}

// Conn returns the pinned connection.
func (s *Session) Conn() *sql.Conn { return s.conn }

// Config returns the effective configuration.
func (s *Session) Config() Config { return s.cfg }

// Close releases the connection and the engine, and with them every table
// the session created.
func (s *Session) Close() {
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.Printf("session: close conn: %v", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("session: close db: %v", err)
		}
	}
}

func settingStatements(cfg Config) ([]string, error) {
	stmts := []string{fmt.Sprintf("SET threads = %d", cfg.Threads)}
	if cfg.MemoryLimit != "" {
		stmts = append(stmts, "SET memory_limit = "+frame.Literal(cfg.MemoryLimit))
	}
	if cfg.TempDirectory != "" {
		stmts = append(stmts, "SET temp_directory = "+frame.Literal(cfg.TempDirectory))
	}
	preserve := true
	if cfg.PreserveInsertionOrder != nil {
		preserve = *cfg.PreserveInsertionOrder
	}
	stmts = append(stmts, fmt.Sprintf("SET preserve_insertion_order = %t", preserve))

	keys := make([]string, 0, len(cfg.Settings))
	for k := range cfg.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !settingName.MatchString(k) {
			return nil, fmt.Errorf("session: invalid setting name %q", k)
		}
		stmts = append(stmts, fmt.Sprintf("SET %s = %s", k, frame.Literal(cfg.Settings[k])))
	}
	return stmts, nil
}
