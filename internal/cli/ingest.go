package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"memvec"
	"memvec/config"
	"memvec/internal/adapter/fs"
)

var (
	ingestIncludes []string
	ingestExcludes []string
	ingestTag      string
	ingestBatch    int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Embed and store text files",
	Long: `Read text files under the given directory, embed them and store them
as documents. Eviction is suspended for the duration of the load and runs
once at the end, so a large corpus can be seeded without repeated scans.

Examples:
  memvec ingest ./notes
  memvec ingest ./docs --include "**/*.md" --tag docs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringSliceVar(&ingestIncludes, "include", nil, "glob patterns of files to ingest (default **/*.txt, **/*.md)")
	ingestCmd.Flags().StringSliceVar(&ingestExcludes, "exclude", nil, "glob patterns of files to skip")
	ingestCmd.Flags().StringVar(&ingestTag, "tag", "", "tag stored in each document's metadata")
	ingestCmd.Flags().IntVar(&ingestBatch, "batch", 32, "files embedded per provider call")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := rootDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	if err := config.EnsureDataDir(rootDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	walker := fs.NewWalker(ingestIncludes, ingestExcludes)
	files, err := walker.Walk(path)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No matching files found.")
		return nil
	}

	ctx := cmd.Context()
	st, err := memvec.Open(ctx, cfg, storeOptions()...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	session := st.BeginBulkLoad()
	defer session.Close(ctx)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Ingesting"),
	)

	if ingestBatch < 1 {
		ingestBatch = 1
	}

	inserted := 0
	for start := 0; start < len(files); start += ingestBatch {
		end := start + ingestBatch
		if end > len(files) {
			end = len(files)
		}

		var texts []string
		var metadatas []map[string]any
		for _, file := range files[start:end] {
			text, err := fs.ReadFile(file)
			if err != nil {
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", file, err)
				continue
			}
			meta := map[string]any{"source": file}
			if ingestTag != "" {
				meta["tag"] = ingestTag
			}
			texts = append(texts, text)
			metadatas = append(metadatas, meta)
		}

		docs, err := st.AddTexts(ctx, texts, metadatas)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		inserted += len(docs)
		bar.Add(end - start)
	}

	session.Close(ctx)
	fmt.Printf("\nIngested %d new documents (%d files scanned, %d stored total).\n",
		inserted, len(files), st.Count())
	return nil
}
