package storagefactory

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atelier/internal/config"
)

func TestNewStorage_Local(t *testing.T) {
	tmpDir := t.TempDir()
	baseURL := "http://localhost:8080/storage"

	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr bool
	}{
		{
			name: "valid local storage config",
			cfg: &config.StorageConfig{
				Type: "local",
				Local: &config.LocalConfig{
					BasePath: tmpDir,
					BaseURL:  baseURL,
				},
			},
			wantErr: false,
		},
		{
			name: "missing local config",
			cfg: &config.StorageConfig{
				Type:  "local",
				Local: nil,
			},
			wantErr: true,
		},
		{
			name: "unsupported storage type",
			cfg: &config.StorageConfig{
				Type: "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, err := NewStorage(ctx, tt.cfg)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got storage %v", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.GetStorageType() != "local" {
				t.Errorf("storage type = %s, want local", s.GetStorageType())
			}
		})
	}
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()

	s, err := NewStorage(ctx, &config.StorageConfig{
		Type: "local",
		Local: &config.LocalConfig{
			BasePath: tmpDir,
			BaseURL:  "http://localhost:8080/storage",
		},
	})
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}

	key := "images/comp1/ref.png"
	url, err := s.Upload(ctx, key, strings.NewReader("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasSuffix(url, key) {
		t.Errorf("URL %q does not end with key %q", url, key)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, key)); err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}

	exists, err := s.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v; want true, nil", exists, err)
	}

	rc, err := s.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "png-bytes" {
		t.Errorf("downloaded %q, want %q", data, "png-bytes")
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	exists, _ = s.Exists(ctx, key)
	if exists {
		t.Error("file still exists after delete")
	}
}
