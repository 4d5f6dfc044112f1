package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ragchat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	handle, err := startHandle(ctx, nil)
	if err != nil {
		return err
	}
	p := tea.NewProgram(tui.New(ctx, handle, documentSummary()), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
