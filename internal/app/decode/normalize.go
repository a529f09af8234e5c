package decode

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/ghalamif/ScanFlow/internal/domain"
)

// aliases maps decoder-native format spellings, folded by foldFormat, onto
// canonical symbologies.
var aliases = map[string]domain.Symbology{
	"qr":      domain.SymbologyQR,
	"qrcode":  domain.SymbologyQR,
	"code128": domain.SymbologyCode128,
	"code39":  domain.SymbologyCode39,
	"code93":  domain.SymbologyCode93,
	"ean13":   domain.SymbologyEAN13,
	"ean8":    domain.SymbologyEAN8,
	"upca":    domain.SymbologyUPCA,
	"upce":    domain.SymbologyUPCE,
	"manual":  domain.SymbologyManual,
}

// Normalize turns a raw decoder result into a ScanRecord stamped with at.
func Normalize(raw domain.RawDecode, at time.Time) (domain.ScanRecord, error) {
	value := cleanValue(raw.Text)
	if value == "" {
		return domain.ScanRecord{}, fmt.Errorf("%w: empty payload (format %q)", domain.ErrMalformedDecode, raw.Format)
	}
	return domain.ScanRecord{
		Value:      value,
		Symbology:  CanonicalSymbology(raw.Format),
		CapturedAt: at,
	}, nil
}

// Manual builds the record for operator-entered test data.
func Manual(value string, at time.Time) (domain.ScanRecord, error) {
	return Normalize(domain.RawDecode{Text: value, Format: string(domain.SymbologyManual)}, at)
}

// CanonicalSymbology resolves known aliases; anything else passes through
// trimmed but otherwise verbatim.
func CanonicalSymbology(format string) domain.Symbology {
	format = strings.TrimSpace(format)
	if format == "" {
		return domain.SymbologyUnknown
	}
	if s, ok := aliases[foldFormat(format)]; ok {
		return s
	}
	return domain.Symbology(format)
}

func foldFormat(format string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(format) {
		switch r {
		case '-', '_', ' ', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func cleanValue(text string) string {
	return strings.TrimSpace(norm.NFC.String(text))
}
