package dnastore

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/klauspost/compress/gzip"
	"github.com/sigurn/crc16"
	"golang.org/x/sync/errgroup"

	"github.com/townmi/dnastore/oligo"
)

var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// Checksum returns the CRC-16/XMODEM of data, as stored in the trailer.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// Encode reads the whole of r and returns one duplex per block, in block
// order, followed by the trailer when one is needed.
func (c *Codec) Encode(r io.Reader) ([]Duplex, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFile, err)
	}
	inLen := len(data)

	if c.cfg.Compress {
		if data, err = compress(data); err != nil {
			return nil, err
		}
	}
	if uint64(len(data)) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrConfig, len(data), uint64(MaxFileSize))
	}

	blocks := (len(data) + BlockSize - 1) / BlockSize
	dups := make([]Duplex, blocks, blocks+1)

	if c.cfg.Workers > 1 && blocks > 1 {
		err = c.encodeParallel(data, dups)
	} else {
		err = c.encodeSequential(data, dups)
	}
	if err != nil {
		return nil, err
	}

	if len(data)%BlockSize != 0 || c.cfg.Checksum {
		t := trailerDuplex(uint64(len(data)), Checksum(data))
		if t, err = c.protect(t); err != nil {
			return nil, err
		}
		dups = append(dups, t)
	}

	c.logStats(inLen, len(data), dups)
	return dups, nil
}

func (c *Codec) encodeSequential(data []byte, dups []Duplex) error {
	idx := oligo.New(OligoLen, 0)
	for i := range dups {
		d, err := c.newDuplex(idx, blockAt(data, i))
		if err != nil {
			return err
		}
		dups[i] = d
		idx = idx.Succ()
	}
	return nil
}

func (c *Codec) encodeParallel(data []byte, dups []Duplex) error {
	var g errgroup.Group
	g.SetLimit(c.cfg.Workers)

	chunk := (len(dups) + c.cfg.Workers - 1) / c.cfg.Workers
	for lo := 0; lo < len(dups); lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > len(dups) {
			hi = len(dups)
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				d, err := c.newDuplex(oligo.New(OligoLen, uint64(i)), blockAt(data, i))
				if err != nil {
					return err
				}
				dups[i] = d
			}
			return nil
		})
	}
	return g.Wait()
}

// blockAt returns the i-th block of data, zero padded to BlockSize.
func blockAt(data []byte, i int) []byte {
	lo := i * BlockSize
	hi := lo + BlockSize
	if hi <= len(data) {
		return data[lo:hi]
	}
	b := make([]byte, BlockSize)
	copy(b, data[lo:])
	return b
}

func (c *Codec) newDuplex(idx oligo.Oligo, b []byte) (Duplex, error) {
	data, err := oligo.FromBytes(b)
	if err != nil {
		return Duplex{}, err
	}
	return c.protect(Duplex{Index: idx, Data: data})
}

// protect fills in the parity oligos of d.
func (c *Codec) protect(d Duplex) (Duplex, error) {
	if c.rs == nil {
		return d, nil
	}
	cw, err := c.rs.EncodeBytes(d.payload(), c.cfg.Parity)
	if err != nil {
		return Duplex{}, err
	}
	if d.Parity, err = packOligos(cw[2*BlockSize:]); err != nil {
		return Duplex{}, err
	}
	return d, nil
}

func (c *Codec) logStats(inLen, outLen int, dups []Duplex) {
	var gc, homo int
	for _, d := range dups {
		gc += d.Index.GCCount() + d.Data.GCCount()
		for _, p := range d.Parity {
			gc += p.GCCount()
		}
		if h := d.Data.MaxHomopolymer(); h > homo {
			homo = h
		}
	}
	nt := len(dups) * c.cfg.ReadWidth()
	ratio := 0.0
	if nt > 0 {
		ratio = float64(gc) / float64(nt)
	}
	c.log.Info("encoded", "bytes", inLen, "payload", outLen, "reads", len(dups),
		"nucleotides", nt, "gc", fmt.Sprintf("%.3f", ratio), "max_homopolymer", homo)
}

func compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	zw := gzip.NewWriter(&b)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// WriteDuplexes writes one read per line.
func WriteDuplexes(w io.Writer, dups []Duplex) error {
	bw := bufio.NewWriter(w)
	for _, d := range dups {
		if _, err := bw.WriteString(d.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeFile encodes the file at path and writes the reads to out, or to
// path + ".encode" when out is empty. It returns the output path.
func (c *Codec) EncodeFile(path, out string) (string, error) {
	if out == "" {
		out = path + ".encode"
	}
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFile, err)
	}
	defer in.Close()

	dups, err := c.Encode(in)
	if err != nil {
		return "", err
	}

	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFile, err)
	}
	if err := WriteDuplexes(f, dups); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: %w", ErrFile, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFile, err)
	}
	c.log.Debug("wrote reads", "path", out, "reads", len(dups))
	return out, nil
}

// Dump writes a listing of the reads: the read number, the sequence and
// the data block as printable text.
func Dump(w io.Writer, dups []Duplex) error {
	bw := bufio.NewWriter(w)
	for i, d := range dups {
		text := "<trailer>"
		if !d.IsTrailer() {
			b, err := d.Data.Bytes()
			if err != nil {
				return err
			}
			text = printable(b)
		}
		if _, err := fmt.Fprintf(bw, "%08d | %s | %s\n", i, d.String(), text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func printable(b []byte) string {
	r := make([]rune, len(b))
	for i, c := range b {
		if c < 0x80 && unicode.IsPrint(rune(c)) {
			r[i] = rune(c)
		} else {
			r[i] = '.'
		}
	}
	return string(r)
}
