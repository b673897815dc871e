package persistence

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteService 单表 kv(key, value, updated_at)
type SQLiteService struct {
	db *sql.DB
}

func NewSQLiteService(path string) (*SQLiteService, error) {
	if path == "" {
		path = "data/vibedash.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "mkdir")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "migrate sqlite")
		}
	}
	return &SQLiteService{db: db}, nil
}

func (s *SQLiteService) NewStore(key string) Store {
	return &blobStore{b: s, key: key}
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) get(key string) ([]byte, error) {
	var b []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotExists
	}
	if err != nil {
		return nil, errors.Wrap(err, "sqlite get")
	}
	return b, nil
}

func (s *SQLiteService) put(key string, b []byte) error {
	_, err := s.db.Exec(`INSERT INTO kv(key, value, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, b, time.Now().UnixMilli())
	return errors.Wrap(err, "sqlite put")
}
