package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/kiosk/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Kiosk is a conversational storefront",
	Long: `Kiosk serves a product catalog as a chat: browse categories, fill a cart
and check out through a guided dialogue. Run it in the terminal, over HTTP
or as MCP tools for agents.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatCmd.RunE(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands). Environment variables
	// provide the defaults.
	pf := rootCmd.PersistentFlags()
	pf.StringP("catalog", "c", cli.EnvOr(cli.EnvCatalog, "catalog.json"), "Catalog document (JSON or YAML)")
	pf.String("pages", cli.EnvOr(cli.EnvPages, ""), "Directory of Markdown pages (default: built-in pages)")
	pf.String("redis-addr", cli.EnvOr(cli.EnvRedisAddr, ""), "Redis address for the activity feed")
	pf.String("redis-password", cli.EnvOr(cli.EnvRedisPass, ""), "Redis password")
	pf.Int("redis-db", cli.EnvInt(cli.EnvRedisDB, 0), "Redis database")
	pf.String("redis-prefix", cli.EnvOr(cli.EnvRedisPrefix, ""), "Key prefix for the feed stream (default \"kiosk:\")")
	pf.String("feed-key", cli.EnvOr(cli.EnvFeedKey, ""), "Hex encoded 32 byte key sealing shipping details in the feed")
	pf.String("log-level", cli.EnvOr(cli.EnvLogLevel, ""), "Log level: debug, info, warn, error (default: silent)")
	pf.Bool("debug", false, "Enable debug logging")

	addChatFlags(rootCmd)
}

func optionsFrom(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	opts := cli.Options{}
	opts.CatalogPath, _ = flags.GetString("catalog")
	opts.PagesDir, _ = flags.GetString("pages")
	opts.RedisAddr, _ = flags.GetString("redis-addr")
	opts.RedisPassword, _ = flags.GetString("redis-password")
	opts.RedisDB, _ = flags.GetInt("redis-db")
	opts.RedisPrefix, _ = flags.GetString("redis-prefix")
	opts.FeedKey, _ = flags.GetString("feed-key")
	opts.LogLevel, _ = flags.GetString("log-level")
	opts.Debug, _ = flags.GetBool("debug")
	return opts
}
