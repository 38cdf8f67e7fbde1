// Package database owns the SQLite connection and the migration runner.
//
// The pure-Go modernc.org/sqlite driver registers itself under the name
// "sqlite" through a blank import, so no CGO toolchain is needed.
package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// recoverableErrors are migration failures that mean the statement already
// ran once, for example a half-applied migration being replayed.
var recoverableErrors = []string{
	"duplicate column name",
	"already exists",
}

// DB wraps the *sql.DB connection pool. *sql.DB is safe for concurrent use.
type DB struct {
	Conn *sql.DB
}

// New opens (creating if needed) the SQLite file at dbPath and applies every
// pending migration from migrationsFS.
//
// Pragmas:
//   - foreign_keys(1): SQLite ships with foreign keys off
//   - journal_mode(WAL): readers do not block the writer
//   - busy_timeout(5000): concurrent writers wait instead of failing with SQLITE_BUSY
func New(dbPath string, migrationsFS fs.FS) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Conn: conn}

	if err := db.runMigrations(migrationsFS); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("[database] connected and migrations applied")
	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// runMigrations applies the *.sql files of migrationsFS in lexical order
// (001_init.sql, 002_seed.sql, ...). Applied file names are recorded in
// schema_migrations so each file runs exactly once per database.
func (db *DB) runMigrations(migrationsFS fs.FS) error {
	if _, err := db.Conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	applied := make(map[string]bool)
	rows, err := db.Conn.Query("SELECT filename FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate migration rows: %w", err)
	}

	for _, file := range sqlFiles {
		if applied[file] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		if err := db.execStatements(file, string(content)); err != nil {
			return err
		}

		if _, err := db.Conn.Exec(
			"INSERT INTO schema_migrations (filename) VALUES (?)", file,
		); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}

		log.Printf("[database] migration applied: %s", file)
	}

	return nil
}

// execStatements runs a migration file one statement at a time so that a
// recoverable failure (see recoverableErrors) can be skipped individually.
func (db *DB) execStatements(filename, content string) error {
	statements := splitStatements(content)

	for i, stmt := range statements {
		if _, err := db.Conn.Exec(stmt); err != nil {
			errMsg := err.Error()
			recoverable := false
			for _, pattern := range recoverableErrors {
				if strings.Contains(errMsg, pattern) {
					recoverable = true
					break
				}
			}

			if recoverable {
				log.Printf("[database] %s: statement %d skipped (recoverable: %s)", filename, i+1, errMsg)
				continue
			}

			return fmt.Errorf("failed to execute migration %s (statement %d): %w", filename, i+1, err)
		}
	}

	return nil
}

// splitStatements splits SQL text on semicolons.
//
// Semicolons are ignored inside single-quoted literals, inside "--" line
// comments and inside the BEGIN ... END body of a CREATE TRIGGER, whose
// inner statements must reach SQLite as a single statement.
func splitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	inComment := false

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" && !isCommentOnly(s) {
			statements = append(statements, s)
		}
		current.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		if inComment {
			current.WriteByte(ch)
			if ch == '\n' {
				inComment = false
			}
			continue
		}

		if !inString && ch == '-' && i+1 < len(sql) && sql[i+1] == '-' {
			inComment = true
			current.WriteByte(ch)
			continue
		}

		if ch == '\'' {
			// '' inside a literal is an escaped quote
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				current.WriteByte(ch)
				current.WriteByte(sql[i+1])
				i++
				continue
			}
			inString = !inString
		}

		if ch == ';' && !inString {
			if inTriggerBody(current.String()) {
				current.WriteByte(ch)
				continue
			}
			flush()
			continue
		}

		current.WriteByte(ch)
	}

	flush()
	return statements
}

// inTriggerBody reports whether stmt is a CREATE TRIGGER whose END has not
// been reached yet.
func inTriggerBody(stmt string) bool {
	upper := strings.ToUpper(stripComments(stmt))
	fields := strings.Fields(upper)
	if len(fields) < 2 || fields[0] != "CREATE" {
		return false
	}
	isTrigger := fields[1] == "TRIGGER" ||
		(len(fields) > 2 && (fields[1] == "TEMP" || fields[1] == "TEMPORARY") && fields[2] == "TRIGGER")
	if !isTrigger {
		return false
	}
	return fields[len(fields)-1] != "END"
}

func stripComments(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func isCommentOnly(s string) bool {
	return strings.TrimSpace(stripComments(s)) == ""
}
