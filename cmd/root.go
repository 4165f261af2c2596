package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"terarelay/internal"
)

var config *internal.Config

var rootCmd = &cobra.Command{
	Use:     "terarelay",
	Short:   "Relay share-hosted files to a streaming CDN",
	Version: "v1.0.0",
	Long: `Terarelay resolves share-hosting links into direct download URLs,
fetches the files through an aria2 daemon, re-uploads them to a streaming
CDN and records each file in a catalog so nothing is transferred twice.

Examples:
  terarelay serve
  terarelay process https://terabox.com/s/1AbC123
  terarelay backends list
  terarelay backends use api_three

Environment Variables:
  TERARELAY_PORT              HTTP listen port
  TERARELAY_ARIA2_RPC_URL     aria2 JSON-RPC endpoint
  TERARELAY_ARIA2_SECRET      aria2 shared secret
  TERARELAY_DOWNLOAD_DIR      transient working directory
  TERARELAY_UPLOAD_ENDPOINT   CDN upload URL (required)
  TERARELAY_MONGO_URI         catalog connection string
  TERARELAY_MONGO_DATABASE    catalog database name
  TERARELAY_SIZE_LIMIT_MB     maximum file size to transfer
  TERARELAY_SIZE_FAIL_CLOSED  reject files with unparsable size labels
  TERARELAY_MAX_WAIT          overall download wait bound (0 = unbounded)
  TERARELAY_PROXY             outbound proxy (http, https or socks5)
  TERARELAY_LOG_LEVEL         debug, info, warn or error

A .env file in the working directory is loaded if present.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = internal.Load()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		if err := internal.InitLogger(config); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	defer internal.SyncLogger()
	return rootCmd.Execute()
}
