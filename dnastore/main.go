package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/townmi/dnastore"
	"github.com/townmi/dnastore/fastq"
	"github.com/townmi/dnastore/internal/log"
)

var configPath string

func main() {
	app := &cli.App{
		Name:  "dnastore",
		Usage: "dnastore is a tool for storing files as DNA oligonucleotides",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Load configuration file",
				Destination: &configPath,
			},
			&cli.IntFlag{
				Name:  "verbosity",
				Value: 3,
				Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "Write logs as JSON",
			},
		},
		Before: func(c *cli.Context) error {
			level := log.VerbosityToLevel(c.Int("verbosity"))
			log.SetDefault(log.New(os.Stderr, level, c.Bool("log-json")))
			return nil
		},
		Commands: []*cli.Command{
			encodeCommand,
			decodeCommand,
			simulateCommand,
			dumpCommand,
		},
	}

	err := app.Run(os.Args)
	checkError(err)
}

var (
	parityFlag = &cli.IntFlag{
		Name:    "parity",
		Aliases: []string{"p"},
		Usage:   "Reed-Solomon parity bytes per read",
	}
	gzipFlag = &cli.BoolFlag{
		Name:  "gzip",
		Usage: "Compress the file before encoding",
	}
	outFlag = &cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "Output path",
	}
)

var encodeCommand = &cli.Command{
	Name:      "encode",
	Usage:     "Encode a file into reads, written to <file>.encode",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		parityFlag,
		gzipFlag,
		outFlag,
		&cli.BoolFlag{
			Name:  "checksum",
			Usage: "Always write the length and checksum trailer",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Goroutines building reads",
		},
	},
	Action: func(c *cli.Context) error {
		path, err := inputArg(c)
		if err != nil {
			return err
		}
		codec, err := newCodec(c)
		if err != nil {
			return err
		}
		out, err := codec.EncodeFile(path, c.String("out"))
		if err != nil {
			return err
		}
		log.Info("encode done", "out", out)
		return nil
	},
}

var decodeCommand = &cli.Command{
	Name:      "decode",
	Usage:     "Decode reads back into a file, written to <file>.decode",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		parityFlag,
		gzipFlag,
		outFlag,
		&cli.StringFlag{
			Name:  "format",
			Usage: "Input format: auto, lines or fastq",
		},
		&cli.BoolFlag{
			Name:  "skip-invalid",
			Usage: "Skip malformed and uncorrectable reads",
		},
	},
	Action: func(c *cli.Context) error {
		path, err := inputArg(c)
		if err != nil {
			return err
		}
		codec, err := newCodec(c)
		if err != nil {
			return err
		}
		out, st, err := codec.DecodeFile(path, c.String("out"))
		if err != nil {
			return err
		}
		log.Info("decode done", "out", out, "blocks", st.Blocks, "corrected", st.Corrected, "skipped", st.Skipped)
		return nil
	},
}

var simulateCommand = &cli.Command{
	Name:      "simulate",
	Usage:     "Shuffle encoded reads into a FASTQ file, written to <file>.fastq",
	ArgsUsage: "<file.encode>",
	Flags: []cli.Flag{
		outFlag,
		&cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "Random seed",
		},
	},
	Action: func(c *cli.Context) error {
		path, err := inputArg(c)
		if err != nil {
			return err
		}
		seqs, err := readLines(path)
		if err != nil {
			return err
		}

		out := c.String("out")
		if out == "" {
			out = path + ".fastq"
		}
		recs := fastq.Simulate(seqs, rand.New(rand.NewSource(c.Int64("seed"))))
		if err := writeFASTQ(out, recs); err != nil {
			return err
		}
		log.Info("simulate done", "out", out, "reads", len(seqs))
		return nil
	},
}

var dumpCommand = &cli.Command{
	Name:      "dump",
	Usage:     "Print the reads of a file with their printable bytes",
	ArgsUsage: "<file>",
	Flags:     []cli.Flag{parityFlag, gzipFlag},
	Action: func(c *cli.Context) error {
		path, err := inputArg(c)
		if err != nil {
			return err
		}
		codec, err := newCodec(c)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		dups, err := codec.Encode(f)
		if err != nil {
			return err
		}
		return dnastore.Dump(os.Stdout, dups)
	},
}

func inputArg(c *cli.Context) (string, error) {
	if c.NArg() == 0 {
		_ = cli.ShowSubcommandHelp(c)
		return "", cli.Exit("missing input file", 1)
	}
	return c.Args().Get(0), nil
}

// newCodec builds a codec from the configuration file overridden by the
// command flags.
func newCodec(c *cli.Context) (*dnastore.Codec, error) {
	cfg, err := dnastore.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if c.IsSet("parity") {
		cfg.Parity = c.Int("parity")
	}
	if c.IsSet("gzip") {
		cfg.Compress = c.Bool("gzip")
	}
	if c.IsSet("checksum") {
		cfg.Checksum = c.Bool("checksum")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("format") {
		cfg.Format = dnastore.InputFormat(c.String("format"))
	}
	if c.IsSet("skip-invalid") {
		cfg.SkipInvalid = c.Bool("skip-invalid")
	}
	return dnastore.New(cfg)
}

func writeFASTQ(path string, recs []*fastq.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", dnastore.ErrFile, err)
	}

	w := fastq.NewWriter(f)
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			f.Close()
			return fmt.Errorf("%w: %w", dnastore.ErrFile, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: %w", dnastore.ErrFile, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", dnastore.ErrFile, err)
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		if l := strings.TrimSpace(s.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	return lines, s.Err()
}

func init() {
	// customization cli help template
	cli.AppHelpTemplate = `NAME:
   {{.Name}} - {{.Usage}}
USAGE:
   {{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}
   {{if len .Authors}}
AUTHOR:
   {{range .Authors}}{{ . }}{{end}}
   {{end}}{{if .Commands}}
COMMANDS:
{{range .Commands}}{{if not .HideHelp}}   {{join .Names ", "}}{{ "\t"}}{{.Usage}}{{ "\n" }}{{end}}{{end}}{{end}}{{if .VisibleFlags}}
GLOBAL OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}{{end}}{{if .Copyright }}
COPYRIGHT:
   {{.Copyright}}
   {{end}}{{if .Version}}
VERSION:
   {{.Version}}
   {{end}}
`
}

func checkError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
