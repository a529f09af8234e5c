package device

import (
	"bufio"
	"io"
)

// lineSource is implemented by streams that already have a reader
// goroutine splitting the device into scans.
type lineSource interface {
	Lines() <-chan string
}

// lineFeed owns the only reader of a device. A line nobody is listening for
// stays in the feed until the next subscriber takes it.
type lineFeed struct {
	lines chan string
}

// newLineFeed reads r until EOF, a read error or done closing. A nil done
// keeps the feed alive for the life of the process.
func newLineFeed(r io.Reader, done <-chan struct{}) *lineFeed {
	f := &lineFeed{lines: make(chan string)}
	go f.run(r, done)
	return f
}

func (f *lineFeed) run(r io.Reader, done <-chan struct{}) {
	defer close(f.lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case f.lines <- sc.Text():
		case <-done:
			return
		}
	}
}
