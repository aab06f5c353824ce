package scanner

import (
	"context"
	"io"
	"log"
	"time"
)

// Keyboard adapts a raw keyboard byte stream into decoded barcodes. A wedge
// scanner shows up as a keyboard typing digits followed by Enter; incidental
// human typing is filtered out by the decoder's timing rule.
type Keyboard struct {
	r     io.Reader
	dec   *Decoder
	codes chan string
	now   func() time.Time
}

func NewKeyboard(r io.Reader) *Keyboard {
	return &Keyboard{
		r:     r,
		dec:   NewDecoder(),
		codes: make(chan string, 8),
		now:   time.Now,
	}
}

func (k *Keyboard) Barcodes() <-chan string {
	return k.codes
}

// Run reads keystrokes until the stream ends or ctx is cancelled, then
// closes the barcode channel.
func (k *Keyboard) Run(ctx context.Context) {
	defer close(k.codes)
	buf := make([]byte, 1)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := k.r.Read(buf)
		if n > 0 {
			if code, ok := k.dec.Feed(buf[0], k.now()); ok {
				select {
				case k.codes <- code:
				case <-ctx.Done():
					return
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("scanner: read error: %v", err)
			}
			return
		}
	}
}
