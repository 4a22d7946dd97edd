package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.DB != "" || cfg.BatchSize != 0 || cfg.Log.Enabled {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), FileName)
	os.WriteFile(p, []byte(`
db: /data/library.db
upload_dir: /srv/uploads
base_url: https://example.com/uploads
batch_size: 200
log:
  enabled: true
  error_only: true
  retention_days: 7
`), 0o644)

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB != "/data/library.db" || cfg.UploadDir != "/srv/uploads" || cfg.BatchSize != 200 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !cfg.Log.Enabled || !cfg.Log.ErrorOnly || cfg.Log.RetentionDays != 7 {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), FileName)
	os.WriteFile(p, []byte("batch_size: [not a number"), 0o644)

	_, err := Load(p)
	if err == nil || !strings.Contains(err.Error(), FileName) {
		t.Errorf("expected error naming the file, got %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("MEDIA_RECLASSIFY_DB", "/env/library.db")
	t.Setenv("MEDIA_RECLASSIFY_UPLOADS", "/env/uploads")
	t.Setenv("MEDIA_RECLASSIFY_BASE_URL", "")

	cfg := Config{DB: "/file/library.db", UploadDir: "/file/uploads", BaseURL: "/files"}
	cfg.ApplyEnv()
	if cfg.DB != "/env/library.db" || cfg.UploadDir != "/env/uploads" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.BaseURL != "/files" {
		t.Errorf("empty env var should not override: %q", cfg.BaseURL)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{UploadDir: "/srv/uploads"}
	cfg.ApplyDefaults()

	if cfg.BatchSize != DefaultBatchSize || cfg.BaseURL != DefaultBaseURL || cfg.Log.RetentionDays != DefaultRetentionDays {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Log.Dir != filepath.Join("/srv/uploads", "media-reclassify-logs") {
		t.Errorf("unexpected log dir %q", cfg.Log.Dir)
	}
	if !strings.HasSuffix(cfg.DB, filepath.Join(".media-reclassify", "library.db")) {
		t.Errorf("unexpected db path %q", cfg.DB)
	}
}

func TestPath(t *testing.T) {
	t.Setenv("MEDIA_RECLASSIFY_CONFIG", "/etc/mr.yaml")
	if got := Path("flag.yaml"); got != "flag.yaml" {
		t.Errorf("flag should win, got %q", got)
	}
	if got := Path(""); got != "/etc/mr.yaml" {
		t.Errorf("env should be used, got %q", got)
	}
	t.Setenv("MEDIA_RECLASSIFY_CONFIG", "")
	if got := Path(""); got != FileName {
		t.Errorf("expected default file name, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	if err := (&Config{}).Validate(); err == nil {
		t.Error("expected error for empty upload dir")
	}
	f := filepath.Join(t.TempDir(), "file")
	os.WriteFile(f, nil, 0o644)
	if err := (&Config{UploadDir: f}).Validate(); err == nil {
		t.Error("expected error for non-directory upload dir")
	}
	if err := (&Config{UploadDir: t.TempDir()}).Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
