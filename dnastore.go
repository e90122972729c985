// Package dnastore encodes files as pools of DNA oligonucleotides and
// decodes sequenced reads back into the original bytes.
//
// A file is cut into 8 byte blocks. Each block becomes a 32 nucleotide data
// oligo paired with a 32 nucleotide index oligo holding the block number;
// the pair, a duplex, is one 64 nucleotide read. Because every read carries
// its own index the pool may come back in any order. With Config.Parity set,
// each read also carries Reed-Solomon parity over GF(2^8) covering the index
// and the data, so substitutions introduced by synthesis and sequencing are
// corrected per read.
package dnastore

import (
	"bytes"
	"errors"

	"github.com/townmi/dnastore/internal/log"
	"github.com/townmi/dnastore/reedsolomon"
)

var (
	ErrFile         = errors.New("dnastore: file error")
	ErrFormat       = errors.New("dnastore: malformed read")
	ErrConfig       = errors.New("dnastore: invalid configuration")
	ErrConflict     = errors.New("dnastore: conflicting reads for one block")
	ErrMissingBlock = errors.New("dnastore: missing block")
	ErrChecksum     = errors.New("dnastore: checksum mismatch")
)

// Encode encodes data with cfg and returns the serialized reads, one per
// line.
func Encode(data []byte, cfg Config) ([]byte, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	dups, err := c.Encode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	if err := WriteDuplexes(&b, dups); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Decode reverses Encode. reads may be in any order and may be wrapped as
// FASTQ records.
func Decode(reads []byte, cfg Config) ([]byte, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	out, _, err := c.Decode(bytes.NewReader(reads))
	return out, err
}

// Codec turns files into duplex reads and back.
type Codec struct {
	cfg Config
	rs  *reedsolomon.Codec
	log *log.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger. The default is the package default logger's
// "codec" module.
func WithLogger(l *log.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a Codec for cfg.
func New(cfg Config, opts ...Option) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Codec{cfg: cfg, log: log.Default().Module("codec")}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.Parity > 0 {
		rs, err := reedsolomon.New(8)
		if err != nil {
			return nil, err
		}
		c.rs = rs
	}
	return c, nil
}

// Config returns the codec configuration.
func (c *Codec) Config() Config { return c.cfg }

// ReadWidth returns the number of nucleotides in one read.
func (c *Codec) ReadWidth() int { return c.cfg.ReadWidth() }
