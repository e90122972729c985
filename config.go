package dnastore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// InputFormat selects how Decode splits its input into reads.
type InputFormat string

const (
	// FormatAuto picks FASTQ when the input starts with '@', plain lines
	// otherwise.
	FormatAuto InputFormat = "auto"
	// FormatLines takes every non-empty line as a read.
	FormatLines InputFormat = "lines"
	// FormatFASTQ takes the sequence line of every four line record.
	FormatFASTQ InputFormat = "fastq"
)

const (
	// BlockSize is the number of file bytes carried by one read.
	BlockSize = 8
	// OligoLen is the width of the index and data oligos.
	OligoLen = 4 * BlockSize
	// MaxParity keeps index, data and parity within one GF(2^8) codeword.
	MaxParity = 255 - 2*BlockSize
	// MaxWorkers bounds the encode worker pool.
	MaxWorkers = 256
)

// Config holds the codec parameters. Encoder and decoder must agree on
// Parity and Compress.
type Config struct {
	// Parity is the number of Reed-Solomon parity bytes added to each read.
	// Each parity byte adds four nucleotides; up to Parity/2 substituted
	// bytes per read are corrected.
	Parity int `yaml:"parity"`
	// Checksum forces a trailer record carrying the file length and a
	// CRC-16 of its bytes. A trailer is always written when the file length
	// is not a multiple of BlockSize.
	Checksum bool `yaml:"checksum"`
	// Compress gzips the file before encoding and gunzips after decoding.
	Compress bool `yaml:"compress"`
	// Format is the decode input format.
	Format InputFormat `yaml:"format"`
	// SkipInvalid drops malformed, uncorrectable and conflicting reads
	// instead of failing the decode.
	SkipInvalid bool `yaml:"skip_invalid"`
	// Workers is the number of goroutines building reads; 0 or 1 encodes
	// sequentially.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the canonical 64 nucleotide format without parity.
func DefaultConfig() Config {
	return Config{Format: FormatAuto}
}

// Validate checks the parameter ranges.
func (c Config) Validate() error {
	if c.Parity < 0 || c.Parity > MaxParity {
		return fmt.Errorf("%w: parity %d not in [0, %d]", ErrConfig, c.Parity, MaxParity)
	}
	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers %d not in [0, %d]", ErrConfig, c.Workers, MaxWorkers)
	}
	switch c.Format {
	case "", FormatAuto, FormatLines, FormatFASTQ:
	default:
		return fmt.Errorf("%w: unknown input format %q", ErrConfig, c.Format)
	}
	return nil
}

// ReadWidth returns the number of nucleotides in one read.
func (c Config) ReadWidth() int {
	return 2*OligoLen + 4*c.Parity
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig. An
// empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrFile, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}
	return cfg, cfg.Validate()
}
