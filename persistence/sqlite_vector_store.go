package persistence

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteVectorStore persists collections in a single SQLite file. Search is
// exact: every row of the collection is scored against the query.
type SQLiteVectorStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteVectorStore opens/creates the index at dbPath, creating parent
// directories as needed.
func NewSQLiteVectorStore(dbPath string) (*SQLiteVectorStore, error) {
	if dbPath == "" {
		return nil, errors.New("index path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	// Foreign keys are per connection; the DSN applies them to every one.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteVectorStore{db: db, path: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteVectorStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		build_id TEXT,
		created_at TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS embeddings (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT,
		embedding BLOB NOT NULL,
		PRIMARY KEY (collection, id),
		FOREIGN KEY(collection) REFERENCES collections(name) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file location.
func (s *SQLiteVectorStore) Path() string { return s.path }

// EnsureCollection creates the collection if it is missing.
func (s *SQLiteVectorStore) EnsureCollection(ctx context.Context, name string) error {
	return s.EnsureCollectionWithBuild(ctx, name, "")
}

// EnsureCollectionWithBuild creates the collection tagged with a build id.
// A non-empty buildID retags an existing collection; an empty one keeps the
// current tag.
func (s *SQLiteVectorStore) EnsureCollectionWithBuild(ctx context.Context, name, buildID string) error {
	if name == "" {
		return errors.New("collection name required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, build_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET build_id = excluded.build_id
		WHERE excluded.build_id != ''`,
		name, buildID, time.Now().UTC())
	return err
}

// BuildID returns the tag recorded when the collection was created.
func (s *SQLiteVectorStore) BuildID(ctx context.Context, name string) (string, error) {
	var buildID sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT build_id FROM collections WHERE name = ?", name).Scan(&buildID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCollectionNotFound
	}
	if err != nil {
		return "", err
	}
	return buildID.String, nil
}

func (s *SQLiteVectorStore) hasCollection(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM collections WHERE name = ?", name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Add stores records in one transaction, replacing rows with the same id.
func (s *SQLiteVectorStore) Add(ctx context.Context, collection string, records []Record) error {
	ok, err := s.hasCollection(ctx, collection)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCollectionNotFound
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO embeddings (collection, id, content, metadata, embedding) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, rec := range records {
		if rec.ID == "" {
			tx.Rollback()
			return errors.New("record id required")
		}
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx, collection, rec.ID, rec.Content, string(meta), encodeVector(rec.Embedding)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// Query ranks every record of the collection by cosine similarity.
func (s *SQLiteVectorStore) Query(ctx context.Context, collection string, vector []float32, limit int) ([]SearchResult, error) {
	records, err := s.load(ctx, collection, 0, true)
	if err != nil {
		return nil, err
	}
	return rankRecords(records, vector, limit), nil
}

// Count reports the number of records in a collection.
func (s *SQLiteVectorStore) Count(ctx context.Context, collection string) (int, error) {
	ok, err := s.hasCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrCollectionNotFound
	}
	var n int
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings WHERE collection = ?", collection).Scan(&n)
	return n, err
}

// Peek returns up to limit records without their embeddings.
func (s *SQLiteVectorStore) Peek(ctx context.Context, collection string, limit int) ([]Record, error) {
	return s.load(ctx, collection, limit, false)
}

// Collections lists collection names in sorted order.
func (s *SQLiteVectorStore) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteCollection drops the collection and, through the foreign key, its rows.
func (s *SQLiteVectorStore) DeleteCollection(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name)
	return err
}

// Close releases the database handle.
func (s *SQLiteVectorStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteVectorStore) load(ctx context.Context, collection string, limit int, withVectors bool) ([]Record, error) {
	ok, err := s.hasCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCollectionNotFound
	}
	query := "SELECT id, content, metadata, embedding FROM embeddings WHERE collection = ? ORDER BY rowid"
	args := []interface{}{collection}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var rec Record
		var meta sql.NullString
		var blob []byte
		if err := rows.Scan(&rec.ID, &rec.Content, &meta, &blob); err != nil {
			return nil, err
		}
		if meta.Valid && meta.String != "" && meta.String != "null" {
			if err := json.Unmarshal([]byte(meta.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for %s: %w", rec.ID, err)
			}
		}
		if withVectors {
			vec, err := decodeVector(blob)
			if err != nil {
				return nil, fmt.Errorf("decode embedding for %s: %w", rec.ID, err)
			}
			rec.Embedding = vec
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// encodeVector packs a vector as little-endian float32 values.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}
