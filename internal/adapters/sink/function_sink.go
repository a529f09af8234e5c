package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

type functionPayload struct {
	Identifier  string `json:"identifier"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

// FunctionSink POSTs a reduced shipment to a secondary processing endpoint
// with a bearer credential.
type FunctionSink struct {
	name   string
	url    string
	token  string
	client *http.Client
}

func NewFunctionSink(name, url, token string, client *http.Client) *FunctionSink {
	if name == "" {
		name = "function"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &FunctionSink{name: name, url: url, token: token, client: client}
}

func (f *FunctionSink) Name() string { return f.name }

func (f *FunctionSink) Deliver(ctx context.Context, rec domain.ScanRecord) error {
	row := ProjectShipment(rec)
	body, err := json.Marshal(functionPayload{
		Identifier:  row.Identifier,
		ProductName: row.ProductName,
		Quantity:    row.Quantity,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	header := http.Header{}
	if f.token != "" {
		header.Set("Authorization", "Bearer "+f.token)
	}
	return postJSON(ctx, f.client, f.url, body, header)
}

var _ ports.Sink = (*FunctionSink)(nil)
