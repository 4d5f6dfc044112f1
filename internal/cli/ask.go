package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Long: `Answers one question against the index and exits. The input may also be
a "remember: <fact>" command, which appends the fact to the knowledge file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "print the chunks used as context")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	handle, err := startHandle(cmd.Context(), nil)
	if err != nil {
		return err
	}

	answer, err := handle.Answer(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}
	cmd.Println(answer)

	if askSources {
		sources := handle.Sources()
		if len(sources) == 0 {
			return nil
		}
		cmd.Println()
		cmd.Println("Sources:")
		for i, r := range sources {
			cmd.Printf("  [%d] (%.3f) %s\n", i+1, r.Score, strings.Join(strings.Fields(r.Chunk.Text), " "))
		}
	}
	return nil
}
