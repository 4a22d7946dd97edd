// Package cli implements the media-reclassify CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rcliao/media-reclassify/internal/config"
	"github.com/rcliao/media-reclassify/internal/store"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	uploadDir  string
	baseURL    string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "media-reclassify",
	Short: "Move uploaded media into year/month folders",
	Long: "Reorganizes an upload tree into <base>/<year>/<month>/ folders based on each attachment's " +
		"creation date, moving variants alongside and rewriting stored paths and content URLs.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $MEDIA_RECLASSIFY_DB or ~/.media-reclassify/library.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $MEDIA_RECLASSIFY_CONFIG or ./media-reclassify.yaml)")
	RootCmd.PersistentFlags().StringVarP(&uploadDir, "uploads", "u", "", "Upload base directory (default: $MEDIA_RECLASSIFY_UPLOADS)")
	RootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Public URL prefix of the upload directory (default: /uploads)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

// loadConfig resolves settings: flags override env override config file override defaults.
func loadConfig() config.Config {
	cfg, err := config.Load(config.Path(configPath))
	if err != nil {
		exitErr("load config", err)
	}
	cfg.ApplyEnv()
	if dbPath != "" {
		cfg.DB = dbPath
	}
	if uploadDir != "" {
		cfg.UploadDir = uploadDir
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.ApplyDefaults()
	return cfg
}

func openStore(cfg config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DB)
}

func textFormat() bool {
	return formatFlag == "text"
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
