// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	loglib "github.com/lakesift/lakesift/pkg/log"
	"github.com/lakesift/lakesift/pkg/record"
)

// Batch is a fully read tabular input: the parsed records plus the canonical
// row strings the manifest tracker hashes.
type Batch struct {
	Header  []string
	Records []record.Record
	// Rows holds one canonically re-encoded CSV line per record, header
	// excluded, used for order-independent content hashing. Re-encoding
	// keeps quoting, so rows with different cells never collide.
	Rows []string
	// SkippedLines counts malformed lines dropped during the read.
	SkippedLines int
}

type Reader struct {
	logger loglib.Logger
}

type ReaderOption func(*Reader)

func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{logger: loglib.NewNoopLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithLogger(logger loglib.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = loglib.NewLogger(logger).WithFields(loglib.Fields{
			loglib.ModuleField: "batch_reader",
		})
	}
}

var ErrEmptyBatch = errors.New("batch has no header row")

func (r *Reader) ReadFile(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening batch file: %w", err)
	}
	defer f.Close()
	return r.Read(f)
}

// Read parses a comma-separated batch with a header row. Lines with a field
// count that does not match the header are skipped and counted, matching the
// permissive behaviour of upstream exporters.
func (r *Reader) Read(in io.Reader) (*Batch, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyBatch
		}
		return nil, fmt.Errorf("reading batch header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	b := &Batch{Header: header}
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			b.SkippedLines++
			r.logger.Warn(err, "skipping malformed batch line")
			continue
		}
		if len(fields) != len(header) {
			b.SkippedLines++
			r.logger.Warn(nil, "skipping batch line with unexpected field count", loglib.Fields{
				"expected": len(header),
				"got":      len(fields),
			})
			continue
		}
		b.Records = append(b.Records, record.FromRow(header, fields))
		b.Rows = append(b.Rows, canonicalRow(fields))
	}
	return b, nil
}

// canonicalRow re-encodes the fields as a single CSV line. A plain join would
// lose cell boundaries for cells containing the separator.
func canonicalRow(fields []string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(fields)
	w.Flush()
	return strings.TrimSuffix(sb.String(), "\n")
}
