package targa

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Catalog is a sqlite database recording the shape and pixel digest of
// scanned Targa files, keyed by path. Identical pixel data produces
// identical digests, so duplicate images can be found regardless of
// filename or on-disk row order.
type Catalog struct {
	db *sql.DB
}

// NewCatalog opens or creates the catalog database in file.
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, width INTEGER NOT NULL, height INTEGER NOT NULL, color_depth INTEGER NOT NULL, has_alpha INTEGER NOT NULL, origin INTEGER NOT NULL, digest TEXT NOT NULL)"); err != nil {
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Set records the spec and digest for path, replacing any previous entry.
func (c *Catalog) Set(path string, spec Spec, digest string) error {
	if _, err := c.db.Exec("INSERT OR REPLACE INTO image (path, width, height, color_depth, has_alpha, origin, digest) VALUES (?, ?, ?, ?, ?, ?, ?)", path, spec.Width, spec.Height, spec.ColorDepth, spec.HasAlpha, int(spec.Origin), digest); err != nil {
		return err
	}
	return nil
}

// Get returns the recorded spec and digest for path, or found == false if
// the path has never been cataloged.
func (c *Catalog) Get(path string) (spec Spec, digest string, found bool, err error) {
	var origin int
	switch err = c.db.QueryRow("SELECT width, height, color_depth, has_alpha, origin, digest FROM image WHERE path = ?", path).Scan(&spec.Width, &spec.Height, &spec.ColorDepth, &spec.HasAlpha, &origin, &digest); err {
	case sql.ErrNoRows:
		return Spec{}, "", false, nil
	case nil:
		spec.Origin = Origin(origin)
		return spec, digest, true, nil
	default:
		return Spec{}, "", false, err
	}
}

// FindByDigest returns the paths of every cataloged image with the given
// pixel digest.
func (c *Catalog) FindByDigest(digest string) ([]string, error) {
	rows, err := c.db.Query("SELECT path FROM image WHERE digest = ? ORDER BY path", digest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// Duplicates returns every digest recorded against more than one path,
// with the paths sharing it.
func (c *Catalog) Duplicates() (map[string][]string, error) {
	rows, err := c.db.Query("SELECT digest, path FROM image WHERE digest IN (SELECT digest FROM image GROUP BY digest HAVING COUNT(*) > 1) ORDER BY digest, path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	duplicates := make(map[string][]string)
	for rows.Next() {
		var digest, path string
		if err := rows.Scan(&digest, &path); err != nil {
			return nil, err
		}
		duplicates[digest] = append(duplicates[digest], path)
	}
	return duplicates, rows.Err()
}
