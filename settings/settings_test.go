package settings

import (
	"os"
	"testing"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func TestLoad_Empty(t *testing.T) {
	isolate(t)

	store := Load()
	if store == nil || len(store) != 0 {
		t.Errorf("fresh store should be empty, got %v", store)
	}
}

func TestSetGetRemove(t *testing.T) {
	isolate(t)

	if err := SetAPIKey("openai", "sk-test-1234567890", ""); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	if got := GetAPIKey("openai"); got != "sk-test-1234567890" {
		t.Errorf("GetAPIKey = %q", got)
	}
	if got := GetAPIKey("groq"); got != "" {
		t.Errorf("GetAPIKey for unset provider = %q, want empty", got)
	}

	if err := Remove("openai"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := GetAPIKey("openai"); got != "" {
		t.Errorf("key survived removal: %q", got)
	}

	// Removing an absent provider is a no-op
	if err := Remove("openai"); err != nil {
		t.Errorf("Remove of absent provider: %v", err)
	}
}

func TestBaseURLStored(t *testing.T) {
	isolate(t)

	if err := SetAPIKey("custom", "key", "https://llm.example.com/v1"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	if got := GetBaseURL("custom"); got != "https://llm.example.com/v1" {
		t.Errorf("GetBaseURL = %q", got)
	}
}

func TestFilePermissions(t *testing.T) {
	isolate(t)

	if err := SetAPIKey("openai", "secret", ""); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}
	info, err := os.Stat(FilePath())
	if err != nil {
		t.Fatalf("stat auth file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("auth.json permissions = %o, want 600", perm)
	}
}

func TestMaskKey(t *testing.T) {
	if got := MaskKey("short"); got != "****" {
		t.Errorf("MaskKey(short) = %q", got)
	}
	if got := MaskKey("sk-abcdefghij1234"); got != "sk-a...1234" {
		t.Errorf("MaskKey = %q", got)
	}
}
