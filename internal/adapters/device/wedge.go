package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

// WedgeScanner decodes line-oriented output from keyboard-wedge scanners.
// Each line is one decode; an optional AIM symbology identifier prefix
// (e.g. "]E0") names the format.
type WedgeScanner struct {
	device string

	mu     sync.Mutex
	stopCh chan struct{}
}

func NewWedgeScanner(device string) *WedgeScanner {
	return &WedgeScanner{device: device}
}

// RequestPermission reports Denied only when the OS refuses to open the
// device; a missing device is left for stream acquisition to report.
func (w *WedgeScanner) RequestPermission(ctx context.Context) (ports.Permission, error) {
	if err := ctx.Err(); err != nil {
		return ports.PermissionDenied, err
	}
	if w.device == "" || w.device == StdinDevice {
		return ports.PermissionGranted, nil
	}
	f, err := os.Open(w.device)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return ports.PermissionDenied, nil
		}
		return ports.PermissionGranted, nil
	}
	_ = f.Close()
	return ports.PermissionGranted, nil
}

func (w *WedgeScanner) StartDecode(ctx context.Context, stream ports.Stream, formats []domain.Symbology) (<-chan domain.RawDecode, error) {
	if stream == nil {
		return nil, fmt.Errorf("wedge scanner: nil stream")
	}

	w.mu.Lock()
	if w.stopCh != nil {
		w.mu.Unlock()
		return nil, fmt.Errorf("wedge scanner: decode already running")
	}
	stop := make(chan struct{})
	w.stopCh = stop
	w.mu.Unlock()

	allowed := make(map[domain.Symbology]bool, len(formats))
	for _, f := range formats {
		allowed[f] = true
	}

	var lines <-chan string
	if src, ok := stream.(lineSource); ok {
		lines = src.Lines()
	} else {
		lines = newLineFeed(stream, stop).lines
	}

	out := make(chan domain.RawDecode)
	go func() {
		defer close(out)
		for {
			var line string
			select {
			case l, ok := <-lines:
				if !ok {
					return
				}
				line = l
			case <-stop:
				return
			case <-ctx.Done():
				return
			}

			raw := ParseAIM(line)
			if raw.Format != "" && len(allowed) > 0 && !allowed[domain.Symbology(raw.Format)] {
				continue
			}
			select {
			case out <- raw:
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (w *WedgeScanner) StopDecode() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
	return nil
}

// ParseAIM splits an AIM symbology identifier off a scanned line.
// Lines without a recognised identifier keep an empty format.
func ParseAIM(line string) domain.RawDecode {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 3 || line[0] != ']' {
		return domain.RawDecode{Text: line}
	}
	text := line[3:]
	var format domain.Symbology
	switch line[1] {
	case 'Q':
		format = domain.SymbologyQR
	case 'C':
		format = domain.SymbologyCode128
	case 'A':
		format = domain.SymbologyCode39
	case 'G':
		format = domain.SymbologyCode93
	case 'E':
		format = eanVariant(line[2], text)
	default:
		return domain.RawDecode{Text: line}
	}
	return domain.RawDecode{Text: text, Format: string(format)}
}

// ]E4 is EAN-8; ]E0 carries EAN-13, UPC-A and UPC-E told apart by length.
func eanVariant(modifier byte, text string) domain.Symbology {
	if modifier == '4' {
		return domain.SymbologyEAN8
	}
	switch len(text) {
	case 12:
		return domain.SymbologyUPCA
	case 8, 6:
		return domain.SymbologyUPCE
	default:
		return domain.SymbologyEAN13
	}
}

var _ ports.Scanner = (*WedgeScanner)(nil)
