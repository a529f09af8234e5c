package domain

import "time"

// Symbology names the encoding scheme of a decoded code.
type Symbology string

const (
	SymbologyQR      Symbology = "QR"
	SymbologyCode128 Symbology = "Code128"
	SymbologyCode39  Symbology = "Code39"
	SymbologyCode93  Symbology = "Code93"
	SymbologyEAN13   Symbology = "EAN-13"
	SymbologyEAN8    Symbology = "EAN-8"
	SymbologyUPCA    Symbology = "UPC-A"
	SymbologyUPCE    Symbology = "UPC-E"
	SymbologyManual  Symbology = "manual"
	SymbologyUnknown Symbology = "unknown"
)

// CanonicalSymbologies is the default set requested from the scanning capability.
var CanonicalSymbologies = []Symbology{
	SymbologyQR,
	SymbologyCode128,
	SymbologyCode39,
	SymbologyCode93,
	SymbologyEAN13,
	SymbologyEAN8,
	SymbologyUPCA,
	SymbologyUPCE,
}

// Known reports whether s is one of the canonical symbologies or manual.
func (s Symbology) Known() bool {
	if s == SymbologyManual {
		return true
	}
	for _, c := range CanonicalSymbologies {
		if s == c {
			return true
		}
	}
	return false
}

// RawDecode is what the external scanning capability hands back for a frame.
type RawDecode struct {
	Text   string
	Format string
}

// ScanRecord is the canonical unit produced by a successful decode or manual entry.
// It is immutable once built.
type ScanRecord struct {
	Value      string    `json:"value"`
	Symbology  Symbology `json:"symbology"`
	CapturedAt time.Time `json:"captured_at"`
}

// SinkResult is the outcome of delivering one ScanRecord to one sink.
type SinkResult struct {
	SinkName    string        `json:"sink"`
	Critical    bool          `json:"critical"`
	Success     bool          `json:"success"`
	ErrorDetail string        `json:"error,omitempty"`
	Latency     time.Duration `json:"latency_ns"`
	Err         error         `json:"-"`
}
