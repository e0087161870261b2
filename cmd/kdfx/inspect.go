package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/kdfx/pkg/kdf"
)

func inspectCmd() *cli.Command {
	var (
		path   string
		asJSON bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the header and channel table of a KDF file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to .kdf file",
				Destination: &path,
				Required:    true,
			},
			&cli.BoolFlag{Name: "json", Usage: "print the summary as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := kdf.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			summary := kdf.Describe(f.Header)
			w := outWriter(cmd)
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return printSummary(w, path, summary)
		},
	}
}

func printSummary(w io.Writer, path string, s kdf.Summary) error {
	fmt.Fprintf(w, "File:      %s\n", path)
	fmt.Fprintf(w, "Format:    %s\n", s.Tag)
	fmt.Fprintf(w, "Header:    %d bytes (data at %d)\n", s.HeaderSize, s.DataStart)
	fmt.Fprintf(w, "Measured:  %s\n", s.MeasuredTimestamp)
	fmt.Fprintf(w, "Channels:  %d\n\n", len(s.Channels))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLABEL\tENC\tSTRIDE\tRATE\tVALUES\tUNIT\tOFFSET\tSIZE")
	for _, ch := range s.Channels {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%d\t%d\n",
			ch.Index, ch.Label, ch.Encoding, ch.Stride, optFloat(ch.SampleRate), optInt(ch.TotalValues),
			ch.Unit, ch.DataOffset, ch.DataSize)
	}
	return tw.Flush()
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
