// Package warehouse provides read-only lookups against the multi-LIMS
// warehouse: the studies behind a sequencing run and the contact emails
// for a study. Only the columns this package queries are modelled.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrStudyNotFound is returned when a study id has no warehouse row.
var ErrStudyNotFound = errors.New("study not found in warehouse")

// ContactRoles are the study-user roles that receive notifications.
var ContactRoles = []string{"manager", "follower", "owner"}

// Study identifies one study associated with a run.
type Study struct {
	IDStudyLims string
	Name        string
}

// Store wraps a read-only warehouse database connection.
type Store struct {
	db *sql.DB
}

// Open connects to the warehouse database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("warehouse path required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open warehouse db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply busy timeout: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StudiesForRun returns the studies associated with an ONT run,
// identified by experiment name, instrument slot and flowcell id,
// ordered by ascending study id. A multiplexed run may span several
// studies; an unknown run returns an empty slice, not an error.
func (s *Store) StudiesForRun(ctx context.Context, experimentName string, instrumentSlot int, flowcellID string) ([]Study, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT s.id_study_lims, COALESCE(s.name, '')
         FROM study s
         JOIN oseq_flowcell f ON f.id_study_tmp = s.id_study_tmp
         WHERE f.experiment_name = ?
           AND f.instrument_slot = ?
           AND f.flowcell_id = ?
         ORDER BY s.id_study_lims ASC`,
		experimentName, instrumentSlot, flowcellID)
	if err != nil {
		return nil, fmt.Errorf("query studies for run %s slot %d flowcell %s: %w",
			experimentName, instrumentSlot, flowcellID, err)
	}
	defer rows.Close()

	var studies []Study
	for rows.Next() {
		var study Study
		if err := rows.Scan(&study.IDStudyLims, &study.Name); err != nil {
			return nil, fmt.Errorf("scan study row: %w", err)
		}
		studies = append(studies, study)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate study rows: %w", err)
	}
	return studies, nil
}

// StudyContacts returns the sorted, de-duplicated emails of the study
// users who should receive notifications (see ContactRoles). A study
// that does not exist yields ErrStudyNotFound; a study with no eligible
// contacts yields an empty slice.
func (s *Store) StudyContacts(ctx context.Context, idStudyLims string) ([]string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM study WHERE id_study_lims = ?`, idStudyLims).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check study %s: %w", idStudyLims, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: id_study_lims=%s", ErrStudyNotFound, idStudyLims)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ContactRoles)), ", ")
	args := make([]any, 0, len(ContactRoles)+1)
	args = append(args, idStudyLims)
	for _, role := range ContactRoles {
		args = append(args, role)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT u.email
         FROM study_users u
         JOIN study s ON u.id_study_tmp = s.id_study_tmp
         WHERE s.id_study_lims = ?
           AND u.email IS NOT NULL
           AND u.role IN (`+placeholders+`)
         ORDER BY u.email ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query contacts for study %s: %w", idStudyLims, err)
	}
	defer rows.Close()

	var contacts []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan contact row: %w", err)
		}
		contacts = append(contacts, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact rows: %w", err)
	}
	return contacts, nil
}
