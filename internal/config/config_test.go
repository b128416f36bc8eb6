package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"CORRECTIONS_BACKEND", "CORRECTIONS_REFRESH_SECONDS", "NATS_SUBJECT",
		"API_RATE_LIMIT_RPS", "UPLOAD_MAX_BYTES", "PROCESS_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.CorrectionsBackend != BackendPostgres {
		t.Fatalf("expected default backend postgres, got %q", cfg.CorrectionsBackend)
	}
	if cfg.CorrectionsRefreshSeconds != 30 {
		t.Fatalf("expected default refresh 30s, got %d", cfg.CorrectionsRefreshSeconds)
	}
	if cfg.NATSSubject != "invoices.ingested" {
		t.Fatalf("unexpected default subject %q", cfg.NATSSubject)
	}
	if cfg.APIRateLimitRPS != 20 {
		t.Fatalf("expected default rps 20, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.UploadMaxBytes != 20<<20 {
		t.Fatalf("expected default upload limit 20 MiB, got %d", cfg.UploadMaxBytes)
	}
	if cfg.ProcessTimeoutSeconds != 120 {
		t.Fatalf("expected default process timeout 120, got %d", cfg.ProcessTimeoutSeconds)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CORRECTIONS_BACKEND", " SQLite ")
	t.Setenv("CORRECTIONS_REFRESH_SECONDS", "5")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")

	cfg := Load()
	if cfg.CorrectionsBackend != BackendSQLite {
		t.Fatalf("expected sqlite backend, got %q", cfg.CorrectionsBackend)
	}
	if cfg.CorrectionsRefreshSeconds != 5 {
		t.Fatalf("expected refresh 5, got %d", cfg.CorrectionsRefreshSeconds)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.UploadMaxBytes != 1024 {
		t.Fatalf("expected upload limit 1024, got %d", cfg.UploadMaxBytes)
	}
}

func TestLoadFallsBackOnGarbage(t *testing.T) {
	t.Setenv("CORRECTIONS_BACKEND", "mongodb")
	t.Setenv("CORRECTIONS_REFRESH_SECONDS", "soon")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.CorrectionsBackend != BackendPostgres {
		t.Fatalf("expected fallback backend, got %q", cfg.CorrectionsBackend)
	}
	if cfg.CorrectionsRefreshSeconds != 30 {
		t.Fatalf("expected fallback refresh, got %d", cfg.CorrectionsRefreshSeconds)
	}
	if cfg.APIRateLimitRPS != 20 {
		t.Fatalf("expected fallback rps, got %v", cfg.APIRateLimitRPS)
	}
}
