package scanner

import "time"

// DefaultGap is the longest pause between two keystrokes that still counts
// as one scanner burst. Hardware scanners type far faster than people, so a
// longer pause resynchronizes the buffer. This is a heuristic: a very fast
// human typist can slip through it.
const DefaultGap = 100 * time.Millisecond

// Decoder reassembles a keyboard-wedge scanner's keystroke burst into one
// barcode per physical scan. It is not safe for concurrent use; keystrokes
// arrive strictly in order from a single stream.
type Decoder struct {
	gap  time.Duration
	buf  []byte
	last time.Time
}

func NewDecoder() *Decoder {
	return &Decoder{gap: DefaultGap}
}

// Feed processes one keystroke. It returns the completed barcode and true
// when an Enter keystroke terminates a non-empty buffer. Digits arriving
// after a pause longer than the gap discard the stale buffer before
// appending. Other keys buffer nothing but still move the timestamp, so the
// next digit decides reset-vs-append against the most recent keystroke.
func (d *Decoder) Feed(key byte, at time.Time) (string, bool) {
	elapsed := at.Sub(d.last)
	d.last = at

	switch {
	case key >= '0' && key <= '9':
		if elapsed > d.gap {
			d.buf = d.buf[:0]
		}
		d.buf = append(d.buf, key)
	case key == '\r' || key == '\n':
		if len(d.buf) == 0 {
			return "", false
		}
		code := string(d.buf)
		d.buf = d.buf[:0]
		return code, true
	}
	return "", false
}
