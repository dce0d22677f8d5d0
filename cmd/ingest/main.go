// Command ingest builds the full-text search index from the catalog CSV
// ahead of time, so the API can start on an already populated index.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tejas-dj/OneStopMed-v1/classifier"
	"github.com/Tejas-dj/OneStopMed-v1/drugparser"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
	"github.com/Tejas-dj/OneStopMed-v1/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ingest",
		Short:        "Load the drug catalog CSV into the SQLite search index",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			dbPath, _ := cmd.Flags().GetString("db")
			encoding, _ := cmd.Flags().GetString("encoding")
			return runIngest(cmd.Context(), csvPath, dbPath, encoding, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("csv", "data/medicine_data.csv", "Path to the catalog CSV")
	cmd.Flags().String("db", "data/drugs.db", "Path to the SQLite index")
	cmd.Flags().String("encoding", "utf8", "Catalog encoding (utf8 or latin1)")

	cmd.AddCommand(classifyCmd())
	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify LABEL [NAME]",
		Short: "Print the dosage form assigned to a pack label",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			form, rule := classifier.ClassifyWithRule(args[0], name)
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (rule %d)\n", form, rule)
			return err
		},
	}
}

// runIngest builds the catalog from csvPath and replaces the index at dbPath
func runIngest(ctx context.Context, csvPath, dbPath, encoding string, out io.Writer) error {
	logging.InitLogger("")
	start := time.Now()

	records, stats, err := drugparser.LoadCatalogFile(csvPath, encoding)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn("Failed to close index", "error", err)
		}
	}()

	if err := store.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Indexed %d records into %s (skipped %d rows) in %s\n",
		count, dbPath, stats.Skipped(), time.Since(start).Round(time.Millisecond))

	distribution := make(map[classifier.DosageForm]int)
	for _, r := range records {
		distribution[r.Type]++
	}
	var parts []string
	for _, form := range classifier.AllDosageForms() {
		if n := distribution[form]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", form, n))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(out, "Types: %s\n", strings.Join(parts, " "))
	}

	return nil
}
