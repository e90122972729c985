package dnastore

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/townmi/dnastore/fastq"
)

// Stats describes a decode.
type Stats struct {
	Reads      int  // reads in the input
	Blocks     int  // distinct blocks recovered
	Corrected  int  // reads repaired by Reed-Solomon
	Duplicates int  // identical copies of a block already seen
	Skipped    int  // reads dropped under SkipInvalid
	Trailer    bool // a trailer record was found
}

type read struct {
	line int
	seq  string
}

type block struct {
	index uint64
	data  uint64
	line  int
}

// Decode parses reads from r, in any order, and returns the file bytes.
func (c *Codec) Decode(r io.Reader) ([]byte, Stats, error) {
	var st Stats

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, st, fmt.Errorf("%w: %w", ErrFile, err)
	}

	reads, err := c.splitReads(raw)
	if err != nil {
		return nil, st, err
	}
	st.Reads = len(reads)

	var (
		blocks  = make([]block, 0, len(reads))
		trailer *block
	)
	for _, rd := range reads {
		b, corrected, err := c.parseRead(rd)
		if err != nil {
			if !c.cfg.SkipInvalid {
				return nil, st, err
			}
			c.log.Warn("skipping read", "line", rd.line, "err", err)
			st.Skipped++
			continue
		}
		if corrected {
			st.Corrected++
		}

		if b.index == TrailerIndex {
			if trailer != nil && trailer.data != b.data {
				err := fmt.Errorf("%w: trailer on lines %d and %d", ErrConflict, trailer.line, b.line)
				if !c.cfg.SkipInvalid {
					return nil, st, err
				}
				c.log.Warn("skipping read", "line", b.line, "err", err)
				st.Skipped++
				continue
			}
			if trailer != nil {
				st.Duplicates++
			}
			if trailer == nil {
				trailer = &b
			}
			continue
		}
		blocks = append(blocks, b)
	}

	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].index < blocks[j].index })

	out := make([]byte, 0, len(blocks)*BlockSize)
	next := uint64(0)
	for i, b := range blocks {
		if i > 0 && b.index == blocks[i-1].index {
			prev := blocks[i-1]
			if b.data == prev.data {
				st.Duplicates++
				continue
			}
			err := fmt.Errorf("%w: block %d on lines %d and %d", ErrConflict, b.index, prev.line, b.line)
			if !c.cfg.SkipInvalid {
				return nil, st, err
			}
			c.log.Warn("skipping read", "line", b.line, "err", err)
			st.Skipped++
			// keep comparing later copies against the first one
			blocks[i] = prev
			continue
		}
		if b.index != next {
			return nil, st, fmt.Errorf("%w: %d", ErrMissingBlock, next)
		}
		out = binary.BigEndian.AppendUint64(out, b.data)
		next++
	}
	st.Blocks = int(next)

	if trailer != nil {
		st.Trailer = true
		if out, err = checkTrailer(out, *trailer); err != nil {
			return nil, st, err
		}
	}

	if c.cfg.Compress {
		if out, err = decompress(out); err != nil {
			return nil, st, err
		}
	}

	c.log.Info("decoded", "reads", st.Reads, "blocks", st.Blocks, "bytes", len(out),
		"corrected", st.Corrected, "duplicates", st.Duplicates, "skipped", st.Skipped)
	return out, st, nil
}

// checkTrailer truncates out to the length recorded in t and verifies the
// checksum.
func checkTrailer(out []byte, t block) ([]byte, error) {
	length, sum := t.data>>16, uint16(t.data)
	have := uint64(len(out))
	if length > have {
		return nil, fmt.Errorf("%w: trailer records %d bytes, blocks hold %d", ErrMissingBlock, length, have)
	}
	if have-length >= BlockSize {
		return nil, fmt.Errorf("%w: trailer records %d bytes, blocks hold %d", ErrFormat, length, have)
	}
	out = out[:length]
	if got := Checksum(out); got != sum {
		return nil, fmt.Errorf("%w: got %04x, want %04x", ErrChecksum, got, sum)
	}
	return out, nil
}

func (c *Codec) splitReads(raw []byte) ([]read, error) {
	format := c.cfg.Format
	if format == "" || format == FormatAuto {
		format = FormatLines
		if t := bytes.TrimLeft(raw, " \t\r\n"); len(t) > 0 && t[0] == '@' {
			format = FormatFASTQ
		}
	}

	var reads []read
	if format == FormatFASTQ {
		fr := fastq.NewReader(bytes.NewReader(raw))
		for {
			rec, err := fr.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFormat, err)
			}
			reads = append(reads, read{line: fr.Line() - 2, seq: rec.Seq})
		}
		return reads, nil
	}

	s := bufio.NewScanner(bytes.NewReader(raw))
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for n := 1; s.Scan(); n++ {
		l := strings.TrimSpace(s.Text())
		if l == "" {
			continue
		}
		reads = append(reads, read{line: n, seq: l})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFile, err)
	}
	return reads, nil
}

// parseRead unpacks and, with parity, corrects one read.
func (c *Codec) parseRead(rd read) (block, bool, error) {
	if w := c.cfg.ReadWidth(); len(rd.seq) != w {
		return block{}, false, fmt.Errorf("%w: line %d: %d nucleotides, want %d", ErrFormat, rd.line, len(rd.seq), w)
	}
	b, err := seqBytes(rd.seq)
	if err != nil {
		return block{}, false, fmt.Errorf("line %d: %w", rd.line, err)
	}

	corrected := false
	if c.rs != nil {
		if !c.rs.CheckBytes(b, c.cfg.Parity) {
			if b, err = c.rs.DecodeBytes(b, c.cfg.Parity, nil); err != nil {
				return block{}, false, fmt.Errorf("%w: line %d: %w", ErrFormat, rd.line, err)
			}
			corrected = true
		}
	}

	return block{
		index: binary.BigEndian.Uint64(b),
		data:  binary.BigEndian.Uint64(b[BlockSize:]),
		line:  rd.line,
	}, corrected, nil
}

func decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return out, nil
}

// DecodeFile decodes the reads in the file at path and writes the bytes to
// out, or to path + ".decode" when out is empty. It returns the output path.
func (c *Codec) DecodeFile(path, out string) (string, Stats, error) {
	if out == "" {
		out = path + ".decode"
	}
	in, err := os.Open(path)
	if err != nil {
		return "", Stats{}, fmt.Errorf("%w: %w", ErrFile, err)
	}
	defer in.Close()

	data, st, err := c.Decode(in)
	if err != nil {
		return "", st, err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", st, fmt.Errorf("%w: %w", ErrFile, err)
	}
	return out, st, nil
}
