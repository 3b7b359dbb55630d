package warehouse_test

import (
	"context"
	"errors"
	"testing"

	"github.com/wtsi-npg/npg-notifications/internal/testsupport"
	"github.com/wtsi-npg/npg-notifications/internal/warehouse"
)

func TestOpenRequiresPath(t *testing.T) {
	if _, err := warehouse.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStudiesForRunOrdersByStudyID(t *testing.T) {
	fixture := testsupport.NewWarehouse(t)
	// Inserted out of order to exercise the ORDER BY.
	late := fixture.AddStudy("5002", "Gut microbiome")
	early := fixture.AddStudy("4001", "Malaria surveillance")
	fixture.AddFlowcell(late, "expt-20", 2, "FAK12345")
	fixture.AddFlowcell(early, "expt-20", 2, "FAK12345")
	// A different slot on the same experiment must not match.
	other := fixture.AddStudy("9000", "Unrelated")
	fixture.AddFlowcell(other, "expt-20", 3, "FAK99999")

	store := fixture.Open()
	studies, err := store.StudiesForRun(context.Background(), "expt-20", 2, "FAK12345")
	if err != nil {
		t.Fatalf("StudiesForRun returned error: %v", err)
	}
	if len(studies) != 2 {
		t.Fatalf("expected 2 studies, got %d", len(studies))
	}
	if studies[0].IDStudyLims != "4001" || studies[1].IDStudyLims != "5002" {
		t.Fatalf("studies not ordered by id: %+v", studies)
	}
	if studies[0].Name != "Malaria surveillance" {
		t.Fatalf("unexpected study name %q", studies[0].Name)
	}
}

func TestStudiesForRunUnknownRunIsEmpty(t *testing.T) {
	fixture := testsupport.NewWarehouse(t)
	store := fixture.Open()

	studies, err := store.StudiesForRun(context.Background(), "nope", 1, "FAK00000")
	if err != nil {
		t.Fatalf("StudiesForRun returned error: %v", err)
	}
	if len(studies) != 0 {
		t.Fatalf("expected no studies, got %+v", studies)
	}
}

func TestStudyContactsFiltersSortsAndDeduplicates(t *testing.T) {
	fixture := testsupport.NewWarehouse(t)
	study := fixture.AddStudy("4001", "Malaria surveillance")
	fixture.AddContact(study, "manager", "zoe@example.org")
	fixture.AddContact(study, "owner", "amy@example.org")
	fixture.AddContact(study, "follower", "amy@example.org") // duplicate email
	fixture.AddContact(study, "loader", "bot@example.org")   // ineligible role
	fixture.AddContact(study, "manager", "")                 // NULL email
	fixture.AddContact(study, "", "norole@example.org")      // NULL role

	store := fixture.Open()
	contacts, err := store.StudyContacts(context.Background(), "4001")
	if err != nil {
		t.Fatalf("StudyContacts returned error: %v", err)
	}
	want := []string{"amy@example.org", "zoe@example.org"}
	if len(contacts) != len(want) {
		t.Fatalf("expected %v, got %v", want, contacts)
	}
	for i := range want {
		if contacts[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, contacts)
		}
	}
}

func TestStudyContactsUnknownStudy(t *testing.T) {
	fixture := testsupport.NewWarehouse(t)
	store := fixture.Open()

	_, err := store.StudyContacts(context.Background(), "0000")
	if !errors.Is(err, warehouse.ErrStudyNotFound) {
		t.Fatalf("expected ErrStudyNotFound, got %v", err)
	}
}

func TestStudyContactsNoEligibleContacts(t *testing.T) {
	fixture := testsupport.NewWarehouse(t)
	study := fixture.AddStudy("4001", "Malaria surveillance")
	fixture.AddContact(study, "loader", "bot@example.org")

	store := fixture.Open()
	contacts, err := store.StudyContacts(context.Background(), "4001")
	if err != nil {
		t.Fatalf("StudyContacts returned error: %v", err)
	}
	if len(contacts) != 0 {
		t.Fatalf("expected no contacts, got %v", contacts)
	}
}
