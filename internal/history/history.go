// Package history is the queryable ledger of everything the server did:
// each editor command and each finished build lands as one row in a local
// SQLite database. Writes are queued and batched by a background goroutine;
// reads go straight to the database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"unrealforge.ai/internal/editor"
)

type Store struct {
	db *sql.DB

	ch   chan rec
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type recKind int

const (
	recCommand recKind = iota + 1
	recBuild
	recSync
)

type rec struct {
	kind recKind

	cmd   commandRow
	build BuildRecord
	done  chan struct{}
}

type commandRow struct {
	Time       string
	Command    string
	Status     string
	Error      string
	DurationMS int64
	ParamsJSON string
}

// BuildRecord is one finished build as the ledger stores it.
type BuildRecord struct {
	Time      string
	Build     string
	Prefix    string
	DryRun    bool
	Requested int
	Spawned   int
	Failed    int
	ElapsedMS int64
	Parts     map[string]int
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db: db,
		ch: make(chan rec, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-style workload.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS commands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			command TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			duration_ms INTEGER NOT NULL,
			params_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_ts ON commands(ts);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_command ON commands(command, ts);`,
		`CREATE TABLE IF NOT EXISTS builds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			build TEXT NOT NULL,
			prefix TEXT NOT NULL,
			dry_run INTEGER NOT NULL,
			requested INTEGER NOT NULL,
			spawned INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			parts_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_builds_ts ON builds(ts);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordExchange queues one command row. Implements editor.Tap; drops when
// the queue is full rather than blocking a command in flight.
func (s *Store) RecordExchange(x editor.Exchange) {
	if s == nil || s.closed.Load() {
		return
	}
	params, _ := json.Marshal(x.Command.Params)
	row := commandRow{
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
		Command:    x.Command.Type,
		Status:     x.Response.Status(),
		DurationMS: x.Duration.Milliseconds(),
		ParamsJSON: string(params),
	}
	if x.Err != nil {
		row.Error = x.Err.Error()
	} else if x.Response.IsError() {
		row.Error = x.Response.ErrorMessage()
	}
	select {
	case s.ch <- rec{kind: recCommand, cmd: row}:
	default:
	}
}

// RecordBuild queues one build summary row.
func (s *Store) RecordBuild(b BuildRecord) {
	if s == nil || s.closed.Load() {
		return
	}
	if b.Time == "" {
		b.Time = time.Now().UTC().Format(time.RFC3339Nano)
	}
	select {
	case s.ch <- rec{kind: recBuild, build: b}:
	default:
	}
}

// loop applies queued rows in short transactions: each burst is drained and
// committed immediately, so readers never wait on a long-lived write
// transaction.
func (s *Store) loop() {
	ctx := context.Background()
	insertCommand, _ := s.db.Prepare(`INSERT INTO commands(ts,command,status,error,duration_ms,params_json) VALUES(?,?,?,?,?,?)`)
	insertBuild, _ := s.db.Prepare(`INSERT INTO builds(ts,build,prefix,dry_run,requested,spawned,failed,elapsed_ms,parts_json) VALUES(?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertCommand != nil {
			_ = insertCommand.Close()
		}
		if insertBuild != nil {
			_ = insertBuild.Close()
		}
	}()

	var syncs []chan struct{}
	apply := func(tx *sql.Tx, r rec) {
		switch r.kind {
		case recCommand:
			c := r.cmd
			_, _ = tx.Stmt(insertCommand).Exec(c.Time, c.Command, c.Status, c.Error, c.DurationMS, c.ParamsJSON)
		case recBuild:
			b := r.build
			parts, _ := json.Marshal(b.Parts)
			_, _ = tx.Stmt(insertBuild).Exec(b.Time, b.Build, b.Prefix, boolInt(b.DryRun),
				b.Requested, b.Spawned, b.Failed, b.ElapsedMS, string(parts))
		case recSync:
			syncs = append(syncs, r.done)
		}
	}

	for first := range s.ch {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			continue
		}
		apply(tx, first)
	drain:
		for {
			select {
			case r, ok := <-s.ch:
				if !ok {
					break drain
				}
				apply(tx, r)
			default:
				break drain
			}
		}
		_ = tx.Commit()
		for _, done := range syncs {
			close(done)
		}
		syncs = syncs[:0]
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CommandRow is one ledger row as queries return it.
type CommandRow struct {
	ID         int64
	Time       string
	Command    string
	Status     string
	Error      string
	DurationMS int64
	ParamsJSON string
}

// BuildRow is one recorded build as queries return it.
type BuildRow struct {
	ID        int64
	Time      string
	Build     string
	Prefix    string
	DryRun    bool
	Requested int
	Spawned   int
	Failed    int
	ElapsedMS int64
	PartsJSON string
}

// CommandStat aggregates the ledger per command type.
type CommandStat struct {
	Command string
	Count   int64
	Errors  int64
}

// RecentCommands returns the newest rows first.
func (s *Store) RecentCommands(ctx context.Context, limit int) ([]CommandRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,ts,command,status,COALESCE(error,''),duration_ms,params_json
		 FROM commands ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CommandRow
	for rows.Next() {
		var r CommandRow
		if err := rows.Scan(&r.ID, &r.Time, &r.Command, &r.Status, &r.Error, &r.DurationMS, &r.ParamsJSON); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecentBuilds returns the newest builds first.
func (s *Store) RecentBuilds(ctx context.Context, limit int) ([]BuildRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,ts,build,prefix,dry_run,requested,spawned,failed,elapsed_ms,parts_json
		 FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BuildRow
	for rows.Next() {
		var r BuildRow
		var dry int
		if err := rows.Scan(&r.ID, &r.Time, &r.Build, &r.Prefix, &dry, &r.Requested, &r.Spawned, &r.Failed, &r.ElapsedMS, &r.PartsJSON); err != nil {
			return nil, err
		}
		r.DryRun = dry != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// CommandStats aggregates call and error counts per command type.
func (s *Store) CommandStats(ctx context.Context) ([]CommandStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT command, COUNT(*), SUM(status='error')
		 FROM commands GROUP BY command ORDER BY command`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CommandStat
	for rows.Next() {
		var st CommandStat
		if err := rows.Scan(&st.Command, &st.Count, &st.Errors); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Flush blocks until every row queued before the call is committed and
// visible to queries.
func (s *Store) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- rec{kind: recSync, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
