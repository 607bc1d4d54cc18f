// Package cache persists build validation results so repeated pre-flight
// checks on an unchanged tree are free. Entries are keyed by target path plus
// a content fingerprint; a stale fingerprint can never serve a stale result.
package cache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"

	"refx/internal/buildgate"
)

const schema = `
CREATE TABLE IF NOT EXISTS build_results (
	target       TEXT NOT NULL,
	fingerprint  TEXT NOT NULL,
	status       TEXT NOT NULL,
	chosen       TEXT NOT NULL,
	summary      TEXT NOT NULL,
	error_count  INTEGER NOT NULL,
	failed       TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	PRIMARY KEY (target, fingerprint)
);
`

// BuildCache stores build validation results in SQLite.
type BuildCache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*BuildCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open build cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize build cache schema: %w", err)
	}
	return &BuildCache{db: db}, nil
}

// Close closes the underlying database.
func (c *BuildCache) Close() error {
	return c.db.Close()
}

// Get returns the cached result for (target, fingerprint), or ok=false.
func (c *BuildCache) Get(ctx context.Context, target, fingerprint string) (*buildgate.Result, bool, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT status, chosen, summary, error_count, failed FROM build_results WHERE target = ? AND fingerprint = ?`,
		target, fingerprint)

	var res buildgate.Result
	var status, failed string
	err := row.Scan(&status, &res.ChosenTarget, &res.ErrorSummary, &res.ErrorCount, &failed)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	res.Status = buildgate.Status(status)
	if failed != "" {
		if err := json.Unmarshal([]byte(failed), &res.FailedProjects); err != nil {
			return nil, false, err
		}
	}
	return &res, true, nil
}

// Put stores a result for (target, fingerprint), replacing any prior entry.
func (c *BuildCache) Put(ctx context.Context, target, fingerprint string, res *buildgate.Result) error {
	failed, err := json.Marshal(res.FailedProjects)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO build_results (target, fingerprint, status, chosen, summary, error_count, failed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		target, fingerprint, string(res.Status), res.ChosenTarget, res.ErrorSummary, res.ErrorCount, string(failed), time.Now().Unix())
	return err
}

// Fingerprint hashes the content and modification times of paths into a
// stable cache key component. Unreadable paths contribute their name only, so
// a vanished file still changes the fingerprint.
func Fingerprint(paths []string) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	for _, p := range sorted {
		io.WriteString(h, p)
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		fmt.Fprintf(h, "%d:%d", info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
