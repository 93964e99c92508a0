package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"memvec"
	"memvec/config"
	"memvec/internal/adapter/embedding"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	useMock bool
	mockDim int
)

var rootCmd = &cobra.Command{
	Use:   "memvec",
	Short: "memvec - embedded vector store for short text documents",
	Long: `memvec stores short text documents with their embedding vectors in a
local database, answers similarity queries over them, and keeps the set
under a size budget by evicting the least-used, oldest documents first.

Example usage:
  memvec ingest ./notes            # Embed and store matching files
  memvec query -q "deploy steps"   # Find the most similar documents
  memvec remove --value old-notes  # Drop documents tagged with a value`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cfg.Store.Path = config.StoreDBPath(rootDir)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./memvec.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "data directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "use deterministic mock embeddings (offline)")
	rootCmd.PersistentFlags().IntVar(&mockDim, "mock-dim", 768, "mock embedding dimension")
}

func storeOptions() []memvec.Option {
	if !useMock {
		return nil
	}
	return []memvec.Option{memvec.WithEmbedder(embedding.NewMockEmbedder(mockDim))}
}
