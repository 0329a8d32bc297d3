package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/kiosk/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the shop in the terminal",
	Long: `Starts an interactive conversation with the shop.
Pick options with #N, type /quit to leave. With --json every view is written
as a JSON line and requests are read the same way.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		opts := cli.ChatOptions{Options: optionsFrom(cmd)}
		opts.User, _ = cmd.Flags().GetString("user")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Style, _ = cmd.Flags().GetString("style")
		opts.Plain, _ = cmd.Flags().GetBool("plain")

		return cli.RunChat(ctx, opts, os.Stdin, os.Stdout)
	},
}

func addChatFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "Username for the conversation (default: $USER)")
	cmd.Flags().Bool("json", false, "Read and write JSON lines")
	cmd.Flags().String("style", "", "Markdown style: dark, light, notty (default: auto)")
	cmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")
}

func init() {
	addChatFlags(chatCmd)
	rootCmd.AddCommand(chatCmd)
}
