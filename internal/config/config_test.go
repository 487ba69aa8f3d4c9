package config

import (
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv(envMap(nil))

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.StorageProvider != ProviderMinio {
		t.Errorf("StorageProvider = %q, want %q", cfg.StorageProvider, ProviderMinio)
	}
	if cfg.CompanionPolicy != PolicyLenient {
		t.Errorf("CompanionPolicy = %q, want %q", cfg.CompanionPolicy, PolicyLenient)
	}
	if cfg.CompanionTimeout != 5*time.Second {
		t.Errorf("CompanionTimeout = %s, want 5s", cfg.CompanionTimeout)
	}
	if got := cfg.CompanionEndpoint(); got != "http://localhost:3001/photos" {
		t.Errorf("CompanionEndpoint() = %q", got)
	}
	if cfg.MaxUploadBytes != 32<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestFromEnvCompanionURL(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"legacy name", map[string]string{"BRIDGE_SERVER_URL": "http://127.0.0.1:27123"}, "http://127.0.0.1:27123/photos"},
		{"new name wins", map[string]string{"BRIDGE_SERVER_URL": "http://a", "COMPANION_URL": "http://b/"}, "http://b/photos"},
		{"custom path", map[string]string{"COMPANION_URL": "http://c", "COMPANION_PATH": "inbox"}, "http://c/inbox"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromEnv(envMap(tt.env)).CompanionEndpoint(); got != tt.want {
				t.Errorf("CompanionEndpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromEnvParsing(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{
		"COMPANION_TIMEOUT":     "3",
		"MAX_UPLOAD_BYTES":      "1024",
		"RATE_LIMIT_PER_MINUTE": "not-a-number",
		"STORAGE_USE_SSL":       "true",
	}))
	if cfg.CompanionTimeout != 3*time.Second {
		t.Errorf("CompanionTimeout = %s, want 3s", cfg.CompanionTimeout)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("MaxUploadBytes = %d, want 1024", cfg.MaxUploadBytes)
	}
	if cfg.RateLimitPerMinute != 0 {
		t.Errorf("RateLimitPerMinute = %d, want fallback 0", cfg.RateLimitPerMinute)
	}
	if !cfg.StorageUseSSL {
		t.Error("StorageUseSSL should be true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"local provider", map[string]string{"STORAGE_PROVIDER": "local"}, false},
		{"strict policy", map[string]string{"COMPANION_POLICY": "strict"}, false},
		{"unknown provider", map[string]string{"STORAGE_PROVIDER": "ftp"}, true},
		{"unknown policy", map[string]string{"COMPANION_POLICY": "sometimes"}, true},
		{"cloudinary without url", map[string]string{"STORAGE_PROVIDER": "cloudinary"}, true},
		{"cloudinary with url", map[string]string{"STORAGE_PROVIDER": "cloudinary", "CLOUDINARY_URL": "cloudinary://k:s@demo"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromEnv(envMap(tt.env)).Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
