package scanner

// Source is the scan-input port the session controller consumes. The
// keyboard-wedge adapter is one implementation; a native scanner driver or a
// test harness can substitute without touching session logic.
type Source interface {
	Barcodes() <-chan string
}
