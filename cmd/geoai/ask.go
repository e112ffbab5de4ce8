package geoai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/go-geoai"
	"github.com/soundprediction/go-geoai/pkg/chart"
	"github.com/soundprediction/go-geoai/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Ask a question about one or more datasets",
	Long: `Ask a question about one or more datasets.

Datasets are given with --data, in the order the generated code receives
them. Text, tables and geotables are printed. Figures are written as png, svg
or pdf and maps as html when --out names a file with that extension; otherwise
their JSON specification is printed.`,
	Example: `  geoai ask "What is the average population?" --data cities.csv
  geoai ask "Plot population by city" --data cities.csv --out population.svg
  geoai ask "Show the parks on a map" --data parks.geojson --kind MAP --out parks.html`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var (
	askData     []string
	askKind     string
	askNoCache  bool
	askTimeout  time.Duration
	askOut      string
	askShowCode bool
)

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringArrayVarP(&askData, "data", "d", nil, "Dataset file (csv, parquet, geojson); repeatable")
	askCmd.Flags().StringVar(&askKind, "kind", "", "Result kind, skipping classification ("+strings.Join(types.Labels(), ", ")+")")
	askCmd.Flags().BoolVar(&askNoCache, "no-cache", false, "Bypass the result cache")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 5*time.Minute, "Overall deadline for the question")
	askCmd.Flags().StringVarP(&askOut, "out", "o", "", "Write a figure or map to this file")
	askCmd.Flags().BoolVar(&askShowCode, "show-code", false, "Print the generated snippet")
}

func runAsk(cmd *cobra.Command, args []string) error {
	var opts []geoai.AskOption
	if askKind != "" {
		kind, err := types.ParseResultKind(strings.ToUpper(askKind))
		if err != nil {
			return err
		}
		opts = append(opts, geoai.WithKind(kind))
	}
	if askNoCache {
		opts = append(opts, geoai.WithoutCache())
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "cli")

	datasets, err := a.loader.LoadAll(ctx, askData)
	if err != nil {
		return err
	}

	res, err := a.client.Ask(ctx, args[0], datasets, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if askShowCode {
		fmt.Fprintf(out, "%s\n\n", res.Code)
	}
	return writeResult(out, res, askOut)
}

// writeResult prints res, or saves figures and maps to path when set.
func writeResult(w io.Writer, res *geoai.Result, path string) error {
	if path != "" {
		if f, ok := res.Figure(); ok {
			return saveFile(path, func(out io.Writer) error {
				format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
				return chart.Render(f, out, format, 6, 4)
			})
		}
		if m, ok := res.Map(); ok {
			return saveFile(path, m.WriteHTML)
		}
	}

	switch v := res.Value.(type) {
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(w, v.String())
		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func saveFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
