package portapack

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// StructuredStorage is the structured-storage capability contract.
type StructuredStorage interface {
	Provider
	Open(path string) error
	Run(query string, args ...any) error
	Query(query string, args ...any) ([]map[string]any, error)
	Close() error
}

// sqliteStore is the native provider. The driver is a cgo binding, which is
// exactly the kind of dependency that may be absent on a given host; the
// probe in newSQLiteStore surfaces that before any call site does.
type sqliteStore struct {
	db *sql.DB
}

func newSQLiteStore() (StructuredStorage, error) {
	probe, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("sqlite driver unavailable: %w", err)
	}
	defer probe.Close()
	if _, err := probe.Exec("CREATE TABLE probe (id INTEGER)"); err != nil {
		return nil, fmt.Errorf("sqlite probe failed: %w", err)
	}
	return &sqliteStore{}, nil
}

func (s *sqliteStore) Capability() string { return CapStructuredStorage }
func (s *sqliteStore) Variant() Variant   { return VariantNative }

func (s *sqliteStore) Open(path string) error {
	if s.db != nil {
		return fmt.Errorf("storage already open")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	s.db = db
	return nil
}

func (s *sqliteStore) Run(query string, args ...any) error {
	if s.db == nil {
		return fmt.Errorf("storage not open")
	}
	_, err := s.db.Exec(query, args...)
	return err
}

func (s *sqliteStore) Query(query string, args ...any) ([]map[string]any, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage not open")
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func (s *sqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// nullStore is the pure fallback when the native engine is absent. Every
// operation warns and returns an empty success so call-site control flow is
// preserved. Data written here is discarded; this is an accepted degradation.
type nullStore struct{}

func newNullStore() *nullStore { return &nullStore{} }

func (n *nullStore) Capability() string { return CapStructuredStorage }
func (n *nullStore) Variant() Variant   { return VariantPure }

func (n *nullStore) Open(path string) error {
	warnf("structured-storage unavailable: open(%s) is a no-op\n", path)
	return nil
}

func (n *nullStore) Run(query string, args ...any) error {
	warnf("structured-storage unavailable: discarding statement %q\n", query)
	return nil
}

func (n *nullStore) Query(query string, args ...any) ([]map[string]any, error) {
	warnf("structured-storage unavailable: query %q returns no rows\n", query)
	return []map[string]any{}, nil
}

func (n *nullStore) Close() error {
	debugf("structured-storage fallback close\n")
	return nil
}
