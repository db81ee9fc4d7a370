package cli

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"bsv/internal/bsv"
	"bsv/internal/compress"
	"bsv/internal/hash"
	"bsv/internal/metrics"
	"bsv/internal/parser/csv"
	"bsv/internal/schema"
	"bsv/internal/sorter"
	"bsv/internal/transformer"
)

// BSV converts delimited text on stdin to rows on stdout.
func BSV() Tool {
	return Tool{
		Name:  "bsv",
		Use:   "bsv < text > rows",
		Short: "convert delimited text to bsv rows",
		Args:  cobra.NoArgs,
		Run:   runBSV,
	}
}

func runBSV(ctx context.Context, env *Env, _ *cobra.Command, _ []string) error {
	cfg := env.Config
	r := csv.NewReader(env.Stdin, csv.Options{Comma: cfg.Comma(), TrimSpace: cfg.CSV.TrimSpace})
	w := bsv.NewWriter(env.Stdout)

	var (
		row bsv.Row
		n   int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.Read(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := w.Dump(&row); err != nil {
			return fmt.Errorf("line %d: %w", r.Line(), err)
		}
		n++
		if n%cfg.LogEvery == 0 {
			log.Printf("bsv: %d rows", n)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	chunks, _ := w.Stats()
	metrics.RecordRows(cfg.Job, "processed", n)
	metrics.RecordChunks(cfg.Job, "out", chunks)
	log.Printf("bsv: %d rows in %d chunks", n, chunks)
	return nil
}

// CSV converts rows on stdin to delimited text on stdout.
func CSV() Tool {
	return Tool{
		Name:  "csv",
		Use:   "csv < rows > text",
		Short: "convert bsv rows to delimited text",
		Args:  cobra.NoArgs,
		Run:   runCSV,
	}
}

func runCSV(ctx context.Context, env *Env, _ *cobra.Command, _ []string) error {
	cfg := env.Config
	r := bsv.NewReader(env.Stdin)
	r.ReuseChunks = true
	w := csv.NewWriter(env.Stdout, csv.Options{Comma: cfg.Comma()})

	var (
		row bsv.Row
		n   int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.Load(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("row %d: %w", n+1, err)
		}
		if err := w.Write(&row); err != nil {
			return err
		}
		n++
		if n%cfg.LogEvery == 0 {
			log.Printf("csv: %d rows", n)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	chunks, _ := r.Stats()
	metrics.RecordRows(cfg.Job, "processed", n)
	metrics.RecordChunks(cfg.Job, "in", chunks)
	return nil
}

// BSchema validates and converts rows against a schema given as the first
// argument.
func BSchema() Tool {
	return Tool{
		Name:  "bschema",
		Use:   "bschema SCHEMA [-f|--filter]",
		Short: "validate and convert bsv rows against a schema",
		Args:  cobra.ExactArgs(1),
		Setup: func(cmd *cobra.Command) {
			cmd.Flags().BoolP("filter", "f", false, "drop rows that violate the schema instead of stopping")
		},
		Run: runBSchema,
	}
}

func runBSchema(ctx context.Context, env *Env, cmd *cobra.Command, args []string) error {
	cfg := env.Config
	filter, err := cmd.Flags().GetBool("filter")
	if err != nil {
		return err
	}
	s, err := schema.Parse(args[0])
	if err != nil {
		return err
	}

	policy := transformer.Abort
	if filter {
		policy = transformer.Filter
	}
	e := transformer.New(s, policy)
	if cfg.Verbose {
		e.LogEvery = cfg.LogEvery
		e.OnReject = func(row int64, reason string) {
			log.Printf("bschema: dropped row %d: %s", row, reason)
		}
	}

	r := bsv.NewReader(env.Stdin)
	r.ReuseChunks = true
	w := bsv.NewWriter(env.Stdout)

	log.Printf("bschema: schema=%s policy=%s", s, policy)
	runErr := transformer.Run(ctx, r, w, e)

	st := e.Stats()
	if st.Filtered > 0 {
		fmt.Fprintf(env.Stderr, "filtered: %d\n", st.Filtered)
	}
	metrics.RecordRows(cfg.Job, "processed", st.Processed)
	metrics.RecordRows(cfg.Job, "emitted", st.Emitted)
	metrics.RecordRows(cfg.Job, "filtered", st.Filtered)
	log.Printf("bschema: processed=%d emitted=%d filtered=%d", st.Processed, st.Emitted, st.Filtered)
	return runErr
}

// BSort sorts rows by the raw bytes of their first column.
func BSort() Tool {
	return Tool{
		Name:  "bsort",
		Use:   "bsort [-r|--reverse] < rows > rows",
		Short: "sort bsv rows by the first column",
		Args:  cobra.NoArgs,
		Setup: func(cmd *cobra.Command) {
			cmd.Flags().BoolP("reverse", "r", false, "sort in descending order")
		},
		Run: runBSort,
	}
}

func runBSort(ctx context.Context, env *Env, cmd *cobra.Command, _ []string) error {
	reverse, err := cmd.Flags().GetBool("reverse")
	if err != nil {
		return err
	}
	n, err := sorter.Run(ctx, bsv.NewReader(env.Stdin), bsv.NewWriter(env.Stdout), sorter.Options{Descending: reverse})
	metrics.RecordRows(env.Config.Job, "processed", n)
	log.Printf("bsort: %d rows", n)
	return err
}

// XXH3 prints the xxh3-64 digest of stdin.
func XXH3() Tool {
	return Tool{
		Name:  "xxh3",
		Use:   "xxh3 [-s|--stream] [-i|--int]",
		Short: "hash stdin with xxh3-64",
		Args:  cobra.NoArgs,
		Setup: func(cmd *cobra.Command) {
			cmd.Flags().BoolP("stream", "s", false, "copy stdin to stdout and print the digest on stderr")
			cmd.Flags().BoolP("int", "i", false, "print the digest as a decimal integer")
		},
		Run: runXXH3,
	}
}

func runXXH3(_ context.Context, env *Env, cmd *cobra.Command, _ []string) error {
	stream, err := cmd.Flags().GetBool("stream")
	if err != nil {
		return err
	}
	decimal, err := cmd.Flags().GetBool("int")
	if err != nil {
		return err
	}

	if stream {
		sum, err := hash.Tee(env.Stdout, env.Stdin)
		if err != nil {
			return err
		}
		fmt.Fprintln(env.Stderr, hash.Format(sum, decimal))
		return nil
	}
	sum, err := hash.Sum(env.Stdin)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.Stdout, hash.Format(sum, decimal))
	return err
}

// Pack compresses every chunk on stdin with the named codec.
func Pack(name, codec string) Tool {
	return Tool{
		Name:  name,
		Use:   name + " < rows > packed",
		Short: "compress bsv chunks with " + codec,
		Args:  cobra.NoArgs,
		Run: func(ctx context.Context, env *Env, _ *cobra.Command, _ []string) error {
			return runCodec(ctx, env, name, codec, compress.Pack)
		},
	}
}

// Unpack restores chunks written by the matching Pack tool.
func Unpack(name, codec string) Tool {
	return Tool{
		Name:  name,
		Use:   name + " < packed > rows",
		Short: "decompress " + codec + " packed bsv chunks",
		Args:  cobra.NoArgs,
		Run: func(ctx context.Context, env *Env, _ *cobra.Command, _ []string) error {
			return runCodec(ctx, env, name, codec, compress.Unpack)
		},
	}
}

type codecFunc func(context.Context, *bsv.Reader, io.Writer, compress.Codec) (compress.Stats, error)

func runCodec(ctx context.Context, env *Env, name, codec string, fn codecFunc) error {
	c, err := compress.ByName(codec)
	if err != nil {
		return err
	}
	defer c.Close()

	r := bsv.NewReader(env.Stdin)
	r.ReuseChunks = true
	st, err := fn(ctx, r, env.Stdout, c)

	metrics.RecordChunks(env.Config.Job, "in", st.Chunks)
	log.Printf("%s: %d chunks, %d raw bytes, %d packed bytes", name, st.Chunks, st.RawBytes, st.PackedBytes)
	return err
}
