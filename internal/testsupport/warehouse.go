// Package testsupport provides fixtures shared by the package tests:
// a seeded warehouse database and a test configuration builder.
package testsupport

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/wtsi-npg/npg-notifications/internal/warehouse"
)

// WarehouseFixture seeds a throwaway warehouse database for one test.
type WarehouseFixture struct {
	t    testing.TB
	db   *sql.DB
	Path string
}

// NewWarehouse creates an empty warehouse database under the test's
// temp directory and applies the schema.
func NewWarehouse(t testing.TB) *WarehouseFixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mlwh.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open warehouse fixture: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(warehouse.Schema); err != nil {
		t.Fatalf("apply warehouse schema: %v", err)
	}
	return &WarehouseFixture{t: t, db: db, Path: path}
}

// AddStudy inserts a study and returns its surrogate key.
func (f *WarehouseFixture) AddStudy(idStudyLims, name string) int64 {
	f.t.Helper()
	res, err := f.db.Exec(
		`INSERT INTO study (id_study_lims, name) VALUES (?, ?)`, idStudyLims, name)
	if err != nil {
		f.t.Fatalf("insert study %s: %v", idStudyLims, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		f.t.Fatalf("study %s insert id: %v", idStudyLims, err)
	}
	return id
}

// AddContact attaches a study user with the given role and email.
// Empty strings insert as NULL to mirror the warehouse's nullable
// columns.
func (f *WarehouseFixture) AddContact(studyKey int64, role, email string) {
	f.t.Helper()
	_, err := f.db.Exec(
		`INSERT INTO study_users (id_study_tmp, role, email) VALUES (?, ?, ?)`,
		studyKey, nullable(role), nullable(email))
	if err != nil {
		f.t.Fatalf("insert study user: %v", err)
	}
}

// AddFlowcell links a study to an ONT run position.
func (f *WarehouseFixture) AddFlowcell(studyKey int64, experimentName string, instrumentSlot int, flowcellID string) {
	f.t.Helper()
	_, err := f.db.Exec(
		`INSERT INTO oseq_flowcell (id_study_tmp, experiment_name, instrument_slot, flowcell_id)
         VALUES (?, ?, ?, ?)`,
		studyKey, experimentName, instrumentSlot, flowcellID)
	if err != nil {
		f.t.Fatalf("insert flowcell: %v", err)
	}
}

// Open returns a warehouse store reading the fixture database.
func (f *WarehouseFixture) Open() *warehouse.Store {
	f.t.Helper()
	store, err := warehouse.Open(f.Path)
	if err != nil {
		f.t.Fatalf("open warehouse store: %v", err)
	}
	f.t.Cleanup(func() { _ = store.Close() })
	return store
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
