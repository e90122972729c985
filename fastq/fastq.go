// Package fastq reads and writes the four line read envelope produced by
// sequencers:
//
//	@id
//	SEQUENCE
//	+
//	QUALITY
package fastq

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
)

var ErrMalformed = errors.New("fastq: malformed record")

// Record is one read.
type Record struct {
	ID   string
	Seq  string
	Qual string
}

// Reader reads records from a line oriented source.
type Reader struct {
	s    *bufio.Scanner
	line int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{s: s}
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int { return r.line }

func (r *Reader) next() (string, bool) {
	for r.s.Scan() {
		r.line++
		l := strings.TrimRight(r.s.Text(), "\r")
		if l != "" {
			return l, true
		}
	}
	return "", false
}

// Read returns the next record, or io.EOF after the last one.
func (r *Reader) Read() (*Record, error) {
	head, ok := r.next()
	if !ok {
		if err := r.s.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	if !strings.HasPrefix(head, "@") {
		return nil, fmt.Errorf("%w: line %d: header %q", ErrMalformed, r.line, head)
	}

	var lines [3]string
	for i := range lines {
		l, ok := r.next()
		if !ok {
			if err := r.s.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: line %d: truncated record", ErrMalformed, r.line)
		}
		lines[i] = l
	}
	if !strings.HasPrefix(lines[1], "+") {
		return nil, fmt.Errorf("%w: line %d: separator %q", ErrMalformed, r.line-1, lines[1])
	}
	if len(lines[2]) != len(lines[0]) {
		return nil, fmt.Errorf("%w: line %d: quality length %d, sequence length %d",
			ErrMalformed, r.line, len(lines[2]), len(lines[0]))
	}

	return &Record{ID: head[1:], Seq: lines[0], Qual: lines[2]}, nil
}

// Writer writes records.
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a Writer to w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes rec.
func (w *Writer) Write(rec *Record) error {
	_, err := fmt.Fprintf(w.w, "@%s\n%s\n+\n%s\n", rec.ID, rec.Seq, rec.Qual)
	return err
}

// Flush writes any buffered data.
func (w *Writer) Flush() error { return w.w.Flush() }

// QualityAlphabet is the set of quality characters used for simulated reads.
const QualityAlphabet = "ABCDEFGHIJ"

// Simulate turns sequences into reads in a random order with random quality
// strings, the way an unordered pool comes back from a sequencer.
func Simulate(seqs []string, rng *rand.Rand) []*Record {
	order := make([]int, len(seqs))
	for i := range order {
		order[i] = i
	}
	// Fisher-Yates
	for i := len(order) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	out := make([]*Record, len(seqs))
	for n, i := range order {
		q := make([]byte, len(seqs[i]))
		for k := range q {
			q[k] = QualityAlphabet[rng.Intn(len(QualityAlphabet))]
		}
		out[n] = &Record{ID: "read_" + strconv.Itoa(n), Seq: seqs[i], Qual: string(q)}
	}
	return out
}
