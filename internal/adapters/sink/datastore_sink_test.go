package sink

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ghalamif/ScanFlow/internal/domain"
)

func TestDatastoreSinkDeliverPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewDatastoreSink("inventory", db, "postgres", "shipments")
	ts := time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC)

	rec := domain.ScanRecord{Value: "0123456789012", Symbology: domain.SymbologyEAN13, CapturedAt: ts}

	expectedQuery := regexp.QuoteMeta("INSERT INTO shipments (identifier, product_name, quantity, unit, manufacturer, origin_country, status, transport_mode, received_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)")
	mock.ExpectExec(expectedQuery).
		WithArgs("0123456789012", "Scanned EAN-13", 1, "pcs", "Unknown", "Unknown", "received", "unknown", ts).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := sink.Deliver(context.Background(), rec); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDatastoreSinkDeliverSQLitePlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewDatastoreSink("local", db, "sqlite", "scans")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scans (identifier, product_name, quantity, unit, manufacturer, origin_country, status, transport_mode, received_at) VALUES (?,?,?,?,?,?,?,?,?)")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := domain.ScanRecord{Value: "hello", Symbology: domain.SymbologyQR, CapturedAt: time.Now()}
	if err := sink.Deliver(context.Background(), rec); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDatastoreSinkDeliverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rejected := errors.New("duplicate key value violates unique constraint")
	mock.ExpectExec("INSERT INTO shipments").WillReturnError(rejected)

	sink := NewDatastoreSink("", db, "postgres", "shipments")
	err = sink.Deliver(context.Background(), domain.ScanRecord{Value: "x", Symbology: domain.SymbologyManual})
	if !errors.Is(err, rejected) {
		t.Fatalf("expected backend rejection to be wrapped, got %v", err)
	}
}

func TestDatastoreSinkName(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	sink := NewDatastoreSink("", db, "postgres", "shipments")
	if sink.Name() != "datastore" {
		t.Fatalf("expected sink name datastore, got %s", sink.Name())
	}
}

func TestProjectShipmentDefaults(t *testing.T) {
	local := time.FixedZone("CEST", 2*3600)
	ts := time.Date(2024, 5, 1, 14, 0, 0, 0, local)
	row := ProjectShipment(domain.ScanRecord{Value: "ABC-1", Symbology: domain.SymbologyCode128, CapturedAt: ts})

	if row.Identifier != "ABC-1" || row.Quantity != 1 || row.Manufacturer != "Unknown" {
		t.Fatalf("unexpected projection: %+v", row)
	}
	if row.ProductName != "Scanned Code128" {
		t.Fatalf("unexpected product name %q", row.ProductName)
	}
	if row.ReceivedAt.Location() != time.UTC || !row.ReceivedAt.Equal(ts) {
		t.Fatalf("expected received_at normalized to UTC, got %s", row.ReceivedAt)
	}
}
