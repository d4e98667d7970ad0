package repositories

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDeliveryRepositoryGetByIDNullEventFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDeliveryRepository(db)

	// Rows written without the event envelope carry NULLs for the event
	// columns and sig_timestamp; reading them back must not error.
	rows := sqlmock.NewRows([]string{"id", "endpoint_id", "event_id", "event_type", "api_version",
		"event_created", "payload", "sig_header", "sig_timestamp", "received_at"}).
		AddRow("dlv_1", "ep_1", nil, nil, nil, nil, "{}", "t=1,v1=a", nil, 1700000000)

	mock.ExpectQuery("SELECT (.+) FROM deliveries WHERE id = ?").
		WithArgs("dlv_1").
		WillReturnRows(rows)

	d, err := repo.GetByID("dlv_1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if d.EventID != "" || d.EventType != "" || d.APIVersion != "" {
		t.Errorf("expected empty event fields, got %+v", d)
	}
	if d.EventCreated != 0 || d.SigTimestamp != 0 {
		t.Errorf("expected zero timestamps, got created=%d sig=%d", d.EventCreated, d.SigTimestamp)
	}
	if d.Payload != "{}" {
		t.Errorf("Payload = %q, want {}", d.Payload)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeliveryRepositoryListNullEventFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDeliveryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "endpoint_id", "event_id", "event_type", "api_version",
		"event_created", "payload", "sig_header", "sig_timestamp", "received_at"}).
		AddRow("dlv_1", "ep_1", nil, nil, nil, nil, "{}", "t=1,v1=a", nil, 1700000000).
		AddRow("dlv_2", "ep_1", "evt_2", "invoice.paid", "2024-01-01", 1690000000, "{}", "t=2,v1=b", 1690000000, 1690000001)

	mock.ExpectQuery("SELECT (.+) FROM deliveries WHERE endpoint_id = ?").
		WithArgs("ep_1", 10, 0).
		WillReturnRows(rows)

	list, err := repo.ListByEndpoint("ep_1", 10, 0)
	if err != nil {
		t.Fatalf("ListByEndpoint() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].EventID != "" {
		t.Errorf("EventID = %q, want empty", list[0].EventID)
	}
	if list[1].EventID != "evt_2" || list[1].EventCreated != 1690000000 {
		t.Errorf("unexpected second row: %+v", list[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
