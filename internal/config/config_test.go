package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CELLRELAY_ACCESS_TOKEN", "token_123")
	t.Setenv("CELLRELAY_SOURCE_SHEET_ID", "111")
	t.Setenv("CELLRELAY_DEST_SHEET_ID", "222")
}

func clearOptionalEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CELLRELAY_CONFIG", "CELLRELAY_WEBHOOK_NAME", "CELLRELAY_CALLBACK_URL",
		"CELLRELAY_ADDR", "CELLRELAY_API_BASE_URL", "CELLRELAY_LOG_LEVEL", "CELLRELAY_LOG_FORMAT",
	} {
		_ = os.Unsetenv(key)
	}
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredEnv(t)
	clearOptionalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.SourceSheetID != 111 || cfg.DestSheetID != 222 {
		t.Fatalf("unexpected sheet ids: %+v", cfg)
	}
	if cfg.WebhookName != "cellrelay" || cfg.ListenAddr != ":8080" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadRequiresAccessToken(t *testing.T) {
	clearOptionalEnv(t)
	t.Setenv("CELLRELAY_ACCESS_TOKEN", "")
	t.Setenv("CELLRELAY_SOURCE_SHEET_ID", "111")
	t.Setenv("CELLRELAY_DEST_SHEET_ID", "222")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error for missing token")
	}
}

func TestLoadRejectsIdenticalSheets(t *testing.T) {
	clearOptionalEnv(t)
	t.Setenv("CELLRELAY_ACCESS_TOKEN", "token_123")
	t.Setenv("CELLRELAY_SOURCE_SHEET_ID", "111")
	t.Setenv("CELLRELAY_DEST_SHEET_ID", "111")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error for identical sheet ids")
	}
}

func TestLoadRejectsMalformedSheetID(t *testing.T) {
	clearOptionalEnv(t)
	t.Setenv("CELLRELAY_ACCESS_TOKEN", "token_123")
	t.Setenv("CELLRELAY_SOURCE_SHEET_ID", "not-a-number")
	t.Setenv("CELLRELAY_DEST_SHEET_ID", "222")

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error for malformed sheet id")
	}
}

func TestEnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cellrelay.yaml")
	contents := []byte("sourceSheetId: 111\ndestSheetId: 222\naccessToken: file_token\nwebhookName: from-file\nlistenAddr: \":9999\"\n")
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	clearOptionalEnv(t)
	t.Setenv("CELLRELAY_CONFIG", path)
	t.Setenv("CELLRELAY_ACCESS_TOKEN", "env_token")
	_ = os.Unsetenv("CELLRELAY_SOURCE_SHEET_ID")
	_ = os.Unsetenv("CELLRELAY_DEST_SHEET_ID")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.AccessToken != "env_token" {
		t.Fatalf("expected env to win over file, got %q", cfg.AccessToken)
	}
	if cfg.WebhookName != "from-file" || cfg.ListenAddr != ":9999" {
		t.Fatalf("expected file values to apply, got %+v", cfg)
	}
	if cfg.SourceSheetID != 111 || cfg.DestSheetID != 222 {
		t.Fatalf("expected sheet ids from file, got %+v", cfg)
	}
}
