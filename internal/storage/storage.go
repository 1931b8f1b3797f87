// Package storage persists games, moves, users and sessions in SQLite.
// Game history writes go through an async writer so a slow disk never
// blocks move processing; auth writes stay synchronous.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	writeQueueSize = 1000
	drainTimeout   = 2 * time.Second
)

type writeOp func(*sql.Tx) error

// Store wraps the SQLite handle plus the async write pipeline.
type Store struct {
	db      *sql.DB
	path    string
	writes  chan writeOp
	healthy atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewStore opens the database at path and starts the background writer.
// devMode switches the journal to WAL for friendlier concurrent access.
func NewStore(path string, devMode bool) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{"PRAGMA foreign_keys = ON"}
	if devMode {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		db:     db,
		path:   path,
		writes: make(chan writeOp, writeQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	s.healthy.Store(true)

	s.wg.Add(1)
	go s.runWriter()

	return s, nil
}

// IsHealthy reports whether writes are still being accepted.
func (s *Store) IsHealthy() bool {
	return s.healthy.Load()
}

func (s *Store) runWriter() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			s.drain()
			return
		case op := <-s.writes:
			if s.healthy.Load() {
				s.runWrite(op)
			}
		}
	}
}

// drain flushes queued writes on shutdown, bounded by drainTimeout.
func (s *Store) drain() {
	deadline := time.After(drainTimeout)
	for {
		select {
		case op := <-s.writes:
			if s.healthy.Load() {
				s.runWrite(op)
			}
		case <-deadline:
			return
		default:
			return
		}
	}
}

// runWrite executes one queued operation inside a transaction. Any
// failure marks the store degraded; later writes are discarded rather
// than retried against a broken disk.
func (s *Store) runWrite(op writeOp) {
	tx, err := s.db.Begin()
	if err != nil {
		s.degrade("begin transaction", err)
		return
	}
	if err := op(tx); err != nil {
		tx.Rollback()
		s.degrade("write", err)
		return
	}
	if err := tx.Commit(); err != nil {
		s.degrade("commit", err)
	}
}

func (s *Store) degrade(stage string, err error) {
	log.Printf("storage degraded at %s: %v", stage, err)
	s.healthy.Store(false)
}

// submitWrite queues an async write. A full queue drops the write and
// logs it; gameplay must never stall on persistence.
func (s *Store) submitWrite(what string, op writeOp) {
	if !s.healthy.Load() {
		return
	}
	select {
	case s.writes <- op:
	default:
		log.Printf("storage queue full, dropped %s", what)
	}
}

// Close stops the writer, waiting briefly for queued writes to land.
func (s *Store) Close() error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		log.Printf("storage writer did not stop in time, queued writes lost")
	}

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitDB applies the schema.
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return tx.Commit()
}

// DeleteDB closes the store and removes the database file.
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove database file: %w", err)
	}
	return nil
}
