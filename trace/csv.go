// Copyright 2026 Marcel Schaible
// Licensed under the MIT license. See license text in the LICENSE file.

package trace

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	pyrtl "github.com/MarcelSchaible/PyRTL"
)

// A CSVTracer stores trace rows in a CSV file, one row per signal per
// cycle. Rows are buffered and written in batches.
type CSVTracer struct {
	path string
	file *os.File

	rows       []row
	bufferSize int
}

// NewCSVTracer creates a CSV tracer writing to path.
func NewCSVTracer(path string) *CSVTracer {
	return &CSVTracer{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the trace file, overwriting an existing one, and registers
// a flush at process exit.
func (t *CSVTracer) Init() {
	file, err := os.Create(t.path)
	if err != nil {
		panic(err)
	}
	t.file = file

	fmt.Fprintf(file, "Cycle, Kind, Name, Addr, Value, Width\n")

	atexit.Register(func() {
		t.Flush()
		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// Record implements pyrtl.Tracer.
func (t *CSVTracer) Record(s pyrtl.Snapshot) {
	t.rows = append(t.rows, flatten(s)...)
	if len(t.rows) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered rows to the CSV file.
func (t *CSVTracer) Flush() {
	for _, r := range t.rows {
		addr := ""
		if r.hasAddr {
			addr = fmt.Sprintf("%d", r.addr)
		}
		fmt.Fprintf(t.file, "%d, %s, %s, %s, %d, %d\n",
			r.cycle, r.kind, r.name, addr, r.value, r.width)
	}
	t.rows = nil
}
