package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

// Shipment is the row shape the managed datastore accepts. The projection
// from ScanRecord is fixed by the backend contract.
type Shipment struct {
	Identifier    string
	ProductName   string
	Quantity      int
	Unit          string
	Manufacturer  string
	OriginCountry string
	Status        string
	TransportMode string
	ReceivedAt    time.Time
}

// ProjectShipment maps a scan onto the datastore row; everything except the
// identifier and timestamp is defaulted.
func ProjectShipment(rec domain.ScanRecord) Shipment {
	return Shipment{
		Identifier:    rec.Value,
		ProductName:   productName(rec),
		Quantity:      1,
		Unit:          "pcs",
		Manufacturer:  "Unknown",
		OriginCountry: "Unknown",
		Status:        "received",
		TransportMode: "unknown",
		ReceivedAt:    rec.CapturedAt.UTC(),
	}
}

func productName(rec domain.ScanRecord) string {
	return "Scanned " + string(rec.Symbology)
}

type DatastoreSink struct {
	name      string
	db        *sql.DB
	tableName string
	driver    string
}

// NewDatastoreSink inserts into table using driver-appropriate placeholders
// ("postgres" uses $n, anything else uses ?).
func NewDatastoreSink(name string, db *sql.DB, driver, table string) *DatastoreSink {
	if name == "" {
		name = "datastore"
	}
	return &DatastoreSink{name: name, db: db, tableName: table, driver: driver}
}

func (d *DatastoreSink) Name() string { return d.name }

func (d *DatastoreSink) Deliver(ctx context.Context, rec domain.ScanRecord) error {
	row := ProjectShipment(rec)

	_, err := d.db.ExecContext(ctx, d.insertQuery(),
		row.Identifier,
		row.ProductName,
		row.Quantity,
		row.Unit,
		row.Manufacturer,
		row.OriginCountry,
		row.Status,
		row.TransportMode,
		row.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", d.tableName, err)
	}
	return nil
}

func (d *DatastoreSink) insertQuery() string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.tableName)
	b.WriteString(" (identifier, product_name, quantity, unit, manufacturer, origin_country, status, transport_mode, received_at) VALUES (")
	for i := 1; i <= 9; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		if d.driver == "postgres" {
			fmt.Fprintf(&b, "$%d", i)
		} else {
			b.WriteString("?")
		}
	}
	b.WriteString(")")
	return b.String()
}

var _ ports.Sink = (*DatastoreSink)(nil)
