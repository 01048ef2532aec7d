package backend

import (
	"context"
	"path/filepath"
	"testing"

	"zandaka/internal/config"
	"zandaka/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", HolidayCacheSize: 8})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.HolidayCacheSize != 8 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory ok", Config{Type: MemoryBackend, StateFile: "s.json"}, false},
		{"memory without file", Config{Type: MemoryBackend}, true},
		{"sqlite ok", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	if got := GetBackendTypeStrings(); len(got) != 2 || got[0] != "memory" || got[1] != "sqlite" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestCreateBackends(t *testing.T) {
	dir := t.TempDir()
	tests := []Config{
		{Type: MemoryBackend, StateFile: filepath.Join(dir, "state.json")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "zandaka.db")},
	}
	for _, cfg := range tests {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			ctx := context.Background()
			res, err := NewFactory(nil).CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer func() {
				if err := res.Cleanup(); err != nil {
					t.Errorf("Cleanup: %v", err)
				}
			}()
			if res.Publishing {
				t.Error("no AMQP URL configured, publishing must be off")
			}

			if _, err := res.Ledger.CreateEntry(ctx, core.EntryParams{
				Date: core.MustParseDate("2024-01-10"), Kind: core.KindIncome, Amount: 1000,
			}); err != nil {
				t.Fatalf("CreateEntry: %v", err)
			}
			if _, err := res.Ledger.UpdateSettings(ctx, core.SettingsPatch{
				RangeStart: ptr(core.MustParseDate("2024-01-01")),
				RangeEnd:   ptr(core.MustParseDate("2024-01-31")),
			}); err != nil {
				t.Fatalf("UpdateSettings: %v", err)
			}
			report, err := res.Projection.Compute(ctx)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if len(report.Days) != 1 || report.Days[0].BalanceAfter != 1000 {
				t.Fatalf("unexpected days: %+v", report.Days)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
