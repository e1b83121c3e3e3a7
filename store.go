package blogform

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/blogform/form"
)

// Store wraps a SQLite database holding per-session form drafts, so a
// half-filled form survives a restart of the console.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets page renders read drafts while an action writes one; the
	// busy timeout makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS drafts (
    session_id TEXT PRIMARY KEY,
    blog_id INTEGER NOT NULL DEFAULT 0,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    author TEXT NOT NULL,
    category TEXT NOT NULL,
    is_published INTEGER NOT NULL DEFAULT 0,
    image_name TEXT,
    image_type TEXT,
    image_data BLOB,
    updated_at TEXT NOT NULL
);
`)
	return err
}

// SaveDraft upserts the draft for a session.
func (s *Store) SaveDraft(sessionID string, d form.State) error {
	published := 0
	if d.IsPublished {
		published = 1
	}
	var name, ctype sql.NullString
	var data []byte
	if d.Image != nil {
		name = sql.NullString{String: d.Image.Name, Valid: true}
		ctype = sql.NullString{String: d.Image.ContentType, Valid: true}
		data = d.Image.Data
		if data == nil {
			data = []byte{}
		}
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO drafts
		(session_id, blog_id, title, description, author, category, is_published, image_name, image_type, image_data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, d.ID, d.Title, d.Description, d.Author, d.Category, published,
		name, ctype, data, time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetDraft returns the saved draft, or sql.ErrNoRows when there is none.
func (s *Store) GetDraft(sessionID string) (form.State, error) {
	var d form.State
	var published int
	var name, ctype sql.NullString
	var data []byte
	err := s.db.QueryRow(`SELECT blog_id, title, description, author, category, is_published, image_name, image_type, image_data
		FROM drafts WHERE session_id = ?`, sessionID).
		Scan(&d.ID, &d.Title, &d.Description, &d.Author, &d.Category, &published, &name, &ctype, &data)
	if err != nil {
		return form.State{}, err
	}
	d.IsPublished = published == 1
	if name.Valid {
		d.Image = &form.Image{Name: name.String, ContentType: ctype.String, Data: data}
	}
	return d, nil
}

// DeleteDraft removes a session's draft.
func (s *Store) DeleteDraft(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM drafts WHERE session_id = ?`, sessionID)
	return err
}

// PurgeDrafts deletes drafts not touched since before and returns how many went.
func (s *Store) PurgeDrafts(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM drafts WHERE updated_at < ?`, before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
