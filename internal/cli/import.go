package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rcliao/media-reclassify/internal/scan"
	"github.com/rcliao/media-reclassify/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Register media found under the upload directory",
		Long: "Walks the upload directory and registers every media file the database does not know yet, " +
			"dating it from EXIF, the file name, or its modification time. With --manifest, imports a JSON " +
			"manifest produced by export instead (use - for stdin).",
		Run: runImport,
	}

	cmd.Flags().StringP("manifest", "m", "", "Import this export manifest instead of scanning")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	manifest, _ := cmd.Flags().GetString("manifest")

	cfg := loadConfig()
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if manifest != "" {
		m, err := readManifest(manifest)
		if err != nil {
			exitErr("read manifest", err)
		}
		stats, err := s.Import(cmd.Context(), m)
		if err != nil {
			exitErr("import", err)
		}
		fmt.Printf(`{"ok":true,"attachments":%d,"contents":%d,"content_meta":%d}`+"\n",
			stats.Attachments, stats.Contents, stats.ContentMeta)
		return
	}

	if err := cfg.Validate(); err != nil {
		exitErr("config", err)
	}
	items, err := scan.Discover(cfg.UploadDir)
	if err != nil {
		exitErr("scan", err)
	}
	res, err := scan.Register(cmd.Context(), s, items)
	if err != nil {
		exitErr("import", err)
	}

	if textFormat() {
		fmt.Printf("Found %d files: %d added (%d variants), %d already registered\n",
			res.Found, res.Added, res.Variants, res.Existing)
		return
	}
	printJSON(res)
}

func readManifest(path string) (*store.Manifest, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var m store.Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &m, nil
}
