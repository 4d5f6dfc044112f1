package cli

import (
	"github.com/spf13/cobra"
)

var reindexForce bool

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the index if the knowledge file changed",
	Long: `Compares the knowledge file's fingerprint with the stored marker and
rebuilds the index when they differ. --force rebuilds unconditionally.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	reindexCmd.Flags().BoolVarP(&reindexForce, "force", "f", false, "rebuild even if the document is unchanged")
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	emb, err := newEmbedder(appCfg)
	if err != nil {
		return err
	}
	mgr := newManager(emb)
	if reindexForce {
		if err := mgr.Invalidate(); err != nil {
			return err
		}
	}

	idx, err := mgr.BuildOrLoad(cmd.Context())
	if err != nil {
		return err
	}
	if idx.Rebuilt {
		cmd.Printf("Index rebuilt: %d chunks\n", idx.Chunks)
	} else {
		cmd.Printf("Index up to date: %d chunks\n", idx.Chunks)
	}
	cmd.Printf("Fingerprint: %s\n", idx.Fingerprint)
	if summary := documentSummary(); summary != "" {
		cmd.Printf("Summary: %s\n", summary)
	}
	return nil
}
