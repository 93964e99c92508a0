package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"memvec"
)

var (
	queryText    string
	queryTopK    int
	queryJSON    bool
	queryValues  bool
	queryFilters []string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search stored documents",
	Long: `Search the stored documents by cosine similarity to the query text.

Examples:
  memvec query -q "deploy steps"
  memvec query -q "postgres backup" -k 10 --json
  memvec query -q "meeting" --filter tag=work`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default 4)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryValues, "values", false, "include embedding vectors in output")
	queryCmd.Flags().StringSliceVar(&queryFilters, "filter", nil, "metadata filters as key=value, all must match")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := memvec.Open(ctx, cfg, storeOptions()...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	filter, err := parseFilters(queryFilters)
	if err != nil {
		return err
	}

	resp, err := st.SimilaritySearch(ctx, memvec.Query{
		Text:          queryText,
		K:             queryTopK,
		Filter:        filter,
		IncludeValues: queryValues,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		output, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(resp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(resp.Results), queryText)
	for i, r := range resp.Results {
		text := r.Text
		if len(text) > 120 {
			text = text[:120] + "..."
		}
		fmt.Printf("%d. [%.4f] #%d (hits=%d) %s\n", i+1, r.Score, r.ID, r.Hits, text)
	}
	return nil
}

func parseFilters(pairs []string) (memvec.FilterFunc, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	want := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid filter %q, want key=value", pair)
		}
		want[key] = value
	}
	return func(meta map[string]any) bool {
		for key, value := range want {
			got, ok := meta[key]
			if !ok || fmt.Sprint(got) != value {
				return false
			}
		}
		return true
	}, nil
}
