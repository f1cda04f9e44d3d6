package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

const notifyChannel = "document_changes"

// PostgresStore keeps the document tree in a single jsonb table.
// Subscribe is backed by LISTEN/NOTIFY: every Write/Delete notifies
// with the affected collection as payload, and subscribers re-read
// the full child set on each notification.
type PostgresStore struct {
	db      *sql.DB
	connStr string
}

func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

func NewPostgresStore(db *sql.DB, connStr string) *PostgresStore {
	return &PostgresStore{db: db, connStr: connStr}
}

// InitSchema creates the documents table if it does not exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			path       TEXT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Once(ctx context.Context, path string) (json.RawMessage, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM documents WHERE path = $1", path).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return doc, nil
}

func (s *PostgresStore) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, doc FROM documents WHERE path LIKE $1", prefix+"/%")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	defer rows.Close()

	docs := make(map[string]json.RawMessage)
	for rows.Next() {
		var path string
		var doc []byte
		if err := rows.Scan(&path, &doc); err != nil {
			return nil, err
		}
		docs[path[len(prefix)+1:]] = doc
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Subscribe(ctx context.Context, prefix string) (<-chan Snapshot, error) {
	listener := pq.NewListener(s.connStr, 10*time.Second, time.Minute, nil)
	if err := listener.Listen(notifyChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", notifyChannel, err)
	}

	ch := make(chan Snapshot, 1)
	go func() {
		defer close(ch)
		defer listener.Close()

		s.push(ctx, prefix, ch)

		ping := time.NewTicker(90 * time.Second)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				// A nil notification signals a reconnect; re-read to
				// cover anything missed while disconnected.
				if n == nil || n.Extra == prefix {
					s.push(ctx, prefix, ch)
				}
			case <-ping.C:
				if err := listener.Ping(); err != nil {
					log.Printf("[PostgresStore] Listener ping failed: %v", err)
				}
			}
		}
	}()

	return ch, nil
}

func (s *PostgresStore) push(ctx context.Context, prefix string, ch chan Snapshot) {
	docs, err := s.List(ctx, prefix)
	if err != nil {
		log.Printf("[PostgresStore] Failed to list %s for snapshot: %v", prefix, err)
		return
	}
	snap := Snapshot{Prefix: prefix, Docs: docs}
	select {
	case ch <- snap:
	case <-ctx.Done():
	}
}

func (s *PostgresStore) Write(ctx context.Context, path string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (path, doc, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		path, data)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return s.notify(ctx, path)
}

func (s *PostgresStore) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE path = $1", path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return s.notify(ctx, path)
}

func (s *PostgresStore) notify(ctx context.Context, path string) error {
	collection, _ := SplitPath(path)
	if _, err := s.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", notifyChannel, collection); err != nil {
		return fmt.Errorf("failed to notify %s: %w", collection, err)
	}
	return nil
}
