package cli

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the index must be rebuilt",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	emb, err := newEmbedder(appCfg)
	if err != nil {
		return err
	}
	needs, current, stored, err := newManager(emb).Status()
	if err != nil {
		return err
	}
	if stored == "" {
		stored = "(none)"
	}

	rebuild := "no"
	if needs {
		rebuild = "yes"
	}
	for _, row := range [][2]string{
		{"Document", appCfg.Document.Path},
		{"Index directory", appCfg.Index.Dir},
		{"Embedder", emb.Name()},
		{"Current fingerprint", current},
		{"Stored fingerprint", stored},
		{"Rebuild required", rebuild},
	} {
		cmd.Printf("%-21s%s\n", row[0]+":", row[1])
	}
	return nil
}
