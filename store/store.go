/*
Package store keeps rasters in a SQLite database, keyed by the SHA-1 of their
raw container encoding so the same image is only ever stored once.
*/
package store

import (
	"crypto/sha1"
	"database/sql"
	"fmt"

	"github.com/bodgit/pixfmt"
	"github.com/bodgit/pixfmt/raw"
	_ "github.com/mattn/go-sqlite3" // register driver
)

// Store is a database of rasters.
type Store struct {
	db *sql.DB
}

// Record describes a stored raster.
type Record struct {
	SHA1          string
	Model         pixfmt.ColorModel
	Width, Height int
}

// Open opens, creating if necessary, the database in file.
func Open(file string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS raster (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, model INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db: db,
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutRaster stores r, returning its key. Storing an identical raster again
// returns the same key.
func (s *Store) PutRaster(r *pixfmt.Raster) (string, error) {
	c := raw.Container{Raster: r}
	b, err := c.MarshalBinary()
	if err != nil {
		return "", err
	}
	sha := fmt.Sprintf("%X", sha1.Sum(b))

	if _, err := s.db.Exec("INSERT OR IGNORE INTO raster (sha1, model, width, height, data) VALUES (?, ?, ?, ?, ?)", sha, int(r.Model), r.Width, r.Height, b); err != nil {
		return "", err
	}

	return sha, nil
}

// Put encodes and stores m, returning its key.
func (s *Store) Put(m *pixfmt.Image) (string, error) {
	r, err := pixfmt.Encode(m)
	if err != nil {
		return "", err
	}
	return s.PutRaster(r)
}

// GetRaster returns the raster stored under sha, or nil if there is none.
func (s *Store) GetRaster(sha string) (*pixfmt.Raster, error) {
	var b []byte
	switch err := s.db.QueryRow("SELECT data FROM raster WHERE sha1 = ?", sha).Scan(&b); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		var c raw.Container
		if err := c.UnmarshalBinary(b); err != nil {
			return nil, fmt.Errorf("store: %s: %w", sha, err)
		}
		return c.Raster, nil
	default:
		return nil, err
	}
}

// Get returns the image stored under sha, or nil if there is none.
func (s *Store) Get(sha string) (*pixfmt.Image, error) {
	r, err := s.GetRaster(sha)
	if err != nil || r == nil {
		return nil, err
	}
	return pixfmt.Decode(r)
}

// List returns every stored raster in insertion order.
func (s *Store) List() ([]Record, error) {
	rows, err := s.db.Query("SELECT sha1, model, width, height FROM raster ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var model int
		if err := rows.Scan(&r.SHA1, &model, &r.Width, &r.Height); err != nil {
			return nil, err
		}
		r.Model = pixfmt.ColorModel(model)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Delete removes the raster stored under sha. It reports whether anything
// was removed.
func (s *Store) Delete(sha string) (bool, error) {
	result, err := s.db.Exec("DELETE FROM raster WHERE sha1 = ?", sha)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
