// Package requesttrace records request state transitions in a SQLite
// database.
package requesttrace

import (
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/parisxmas/central-admin/internal/requestdata"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DefaultBatchSize is the number of buffered transitions that triggers a
// write.
const DefaultBatchSize = 500

// insertChunk bounds the rows per INSERT statement; SQLite caps the number
// of bound variables.
const insertChunk = 500

const schema = `CREATE TABLE IF NOT EXISTS request_transitions (
	id TEXT PRIMARY KEY,
	run TEXT NOT NULL,
	console TEXT NOT NULL,
	key TEXT NOT NULL,
	token INTEGER NOT NULL,
	from_state TEXT NOT NULL,
	to_state TEXT NOT NULL,
	at TIMESTAMP NOT NULL,
	error TEXT
)`

const insertRecord = `INSERT INTO request_transitions
	(id, run, console, key, token, from_state, to_state, at, error)
	VALUES (:id, :run, :console, :key, :token, :from_state, :to_state, :at, :error)`

// Record is one stored transition.
type Record struct {
	ID      string    `db:"id" json:"id"`
	Run     string    `db:"run" json:"run"`
	Console string    `db:"console" json:"console"`
	Key     string    `db:"key" json:"key"`
	Token   int64     `db:"token" json:"token"`
	From    string    `db:"from_state" json:"from"`
	To      string    `db:"to_state" json:"to"`
	At      time.Time `db:"at" json:"at"`
	Error   *string   `db:"error" json:"error,omitempty"`
}

// Recorder buffers transitions and writes them to the request_transitions
// table in batches. Buffered rows are flushed at exit.
type Recorder struct {
	db        *sqlx.DB
	run       string
	batchSize int

	mu      sync.Mutex
	pending []Record
}

// Open creates or opens the database at path.
func Open(path string) (*Recorder, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("requesttrace: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("requesttrace: create table: %w", err)
	}

	r := &Recorder{
		db:        db,
		run:       xid.New().String(),
		batchSize: DefaultBatchSize,
	}
	atexit.Register(func() {
		if err := r.Flush(); err != nil {
			log.Printf("Warning: request trace flush at exit: %v", err)
		}
	})
	return r, nil
}

// Run identifies this recorder's rows.
func (r *Recorder) Run() string { return r.run }

// SetBatchSize changes how many transitions are buffered before a write.
func (r *Recorder) SetBatchSize(n int) {
	r.mu.Lock()
	r.batchSize = max(n, 1)
	r.mu.Unlock()
}

// Observe records a transition without a console id.
func (r *Recorder) Observe(t requestdata.Transition) {
	r.record("", t)
}

// For returns an observer tagging transitions with consoleID.
func (r *Recorder) For(consoleID string) requestdata.Observer {
	return requestdata.ObserverFunc(func(t requestdata.Transition) {
		r.record(consoleID, t)
	})
}

func (r *Recorder) record(console string, t requestdata.Transition) {
	rec := Record{
		ID:      xid.New().String(),
		Run:     r.run,
		Console: console,
		Key:     string(t.Key),
		Token:   int64(t.Token),
		From:    t.From.String(),
		To:      t.To.String(),
		At:      t.At.UTC(),
	}
	if t.Err != nil {
		msg := t.Err.Error()
		rec.Error = &msg
	}

	r.mu.Lock()
	r.pending = append(r.pending, rec)
	full := len(r.pending) >= r.batchSize
	r.mu.Unlock()
	if full {
		if err := r.Flush(); err != nil {
			log.Printf("Warning: request trace: %v", err)
		}
	}
}

// Flush writes the buffered transitions in one transaction.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	rows := r.pending
	r.pending = nil
	r.mu.Unlock()
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("requesttrace: begin: %w", err)
	}
	for start := 0; start < len(rows); start += insertChunk {
		end := min(start+insertChunk, len(rows))
		if _, err := tx.NamedExec(insertRecord, rows[start:end]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("requesttrace: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("requesttrace: commit: %w", err)
	}
	return nil
}

// Transitions returns the newest stored transitions, oldest first. An empty
// console matches every console; limit <= 0 means no limit.
func (r *Recorder) Transitions(console string, limit int) ([]Record, error) {
	if err := r.Flush(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	var out []Record
	err := r.db.Select(&out, `SELECT id, run, console, key, token, from_state, to_state, at, error
		FROM request_transitions
		WHERE (? = '' OR console = ?)
		ORDER BY at DESC, rowid DESC
		LIMIT ?`, console, console, limit)
	if err != nil {
		return nil, fmt.Errorf("requesttrace: select: %w", err)
	}
	slices.Reverse(out)
	return out, nil
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	ferr := r.Flush()
	if err := r.db.Close(); err != nil {
		return err
	}
	return ferr
}
