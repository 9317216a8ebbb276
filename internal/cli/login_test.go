package cli

import (
	"strings"
	"testing"

	"github.com/evcraddock/reelreviews/internal/config"
)

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "rr_abc123def456", false},
		{"empty key", "", true},
		{"missing prefix", "abc123def456", true},
		{"wrong prefix", "hf_abc123", true},
		{"just prefix", "rr_", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAPIKey(%q) err = %v, wantErr = %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestLoginWithFlags(t *testing.T) {
	isolateEnv(t)

	out, err := executeCommand("login", "--key", "rr_flagkey", "--server", "http://myhost:9090/")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "API key saved") {
		t.Errorf("output = %q, want confirmation", out)
	}

	f, err := config.LoadFile()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.APIKey != "rr_flagkey" {
		t.Errorf("api_key = %q, want rr_flagkey", f.APIKey)
	}
	if f.ServerURL != "http://myhost:9090" {
		t.Errorf("server_url = %q, want trailing slash trimmed", f.ServerURL)
	}
}

func TestLoginReadsKeyFromStdin(t *testing.T) {
	isolateEnv(t)

	root := NewRootCmd()
	root.SetIn(strings.NewReader("  rr_pasted \n"))
	root.SetOut(new(strings.Builder))
	root.SetErr(new(strings.Builder))
	root.SetArgs([]string{"login"})
	if err := root.Execute(); err != nil {
		t.Fatalf("login: %v", err)
	}

	f, err := config.LoadFile()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.APIKey != "rr_pasted" {
		t.Errorf("api_key = %q, want rr_pasted", f.APIKey)
	}
}

func TestLoginRejectsBadKey(t *testing.T) {
	isolateEnv(t)

	if _, err := executeCommand("login", "--key", "hf_old"); err == nil {
		t.Fatal("expected error for wrong prefix")
	}
	f, err := config.LoadFile()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.APIKey != "" {
		t.Errorf("api_key = %q, want nothing saved", f.APIKey)
	}
}
