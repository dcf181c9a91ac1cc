package credentials

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(
		filepath.Join(dir, "config.json"),
		filepath.Join(dir, ".secret_key"),
		slog.New(slog.NewTextHandler(os.Stderr, nil)),
	)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := generateKey()
	if err != nil {
		t.Fatalf("generateKey: %v", err)
	}

	values := []string{
		"PKTESTKEY123",
		"abcdefghijklmnopqrstuvwxyz012345",
		"",
		"short",
		"exactly sixteen!", // one full AES block
		strings.Repeat("x", 100),
	}
	for _, v := range values {
		enc, err := encryptValue(key, v)
		if err != nil {
			t.Fatalf("encryptValue(%q): %v", v, err)
		}
		if enc == v && v != "" {
			t.Errorf("encryptValue(%q) returned plaintext", v)
		}
		dec, err := decryptValue(key, enc)
		if err != nil {
			t.Fatalf("decryptValue(%q): %v", v, err)
		}
		if dec != v {
			t.Errorf("round trip = %q, want %q", dec, v)
		}
	}
}

func TestEncryptUsesRandomIV(t *testing.T) {
	key, err := generateKey()
	if err != nil {
		t.Fatalf("generateKey: %v", err)
	}
	a, _ := encryptValue(key, "PKTESTKEY123")
	b, _ := encryptValue(key, "PKTESTKEY123")
	if a == b {
		t.Error("two encryptions of the same value produced identical ciphertexts")
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	key1, _ := generateKey()
	key2, _ := generateKey()
	enc, err := encryptValue(key1, "PKTESTKEY123")
	if err != nil {
		t.Fatalf("encryptValue: %v", err)
	}
	if dec, err := decryptValue(key2, enc); err == nil && dec == "PKTESTKEY123" {
		t.Error("decryption with wrong key recovered the plaintext")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)

	creds := Credentials{
		APIKey:    "PKABCDEF1234",
		APISecret: "abcdefghijklmnopqrstuvwxyz012345",
		BaseURL:   PaperBaseURL,
	}
	if err := s.Save(creds); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.APIKey != creds.APIKey {
		t.Errorf("APIKey = %q, want %q", got.APIKey, creds.APIKey)
	}
	if got.APISecret != creds.APISecret {
		t.Errorf("APISecret = %q, want %q", got.APISecret, creds.APISecret)
	}
	if got.BaseURL != PaperBaseURL {
		t.Errorf("BaseURL = %q, want %q", got.BaseURL, PaperBaseURL)
	}
	if !got.Paper() {
		t.Error("Paper() = false for paper base URL")
	}
}

func TestSecretsNotStoredInPlaintext(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(Credentials{APIKey: "PKABCDEF1234", APISecret: "abcdefghijklmnopqrstuvwxyz012345"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(s.configPath)
	if err != nil {
		t.Fatalf("reading config file: %v", err)
	}
	if strings.Contains(string(raw), "PKABCDEF1234") {
		t.Error("api key stored in plaintext")
	}
	if strings.Contains(string(raw), "abcdefghijklmnopqrstuvwxyz012345") {
		t.Error("api secret stored in plaintext")
	}
}

func TestFileModes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes not meaningful on windows")
	}
	s := newTestStore(t)
	if err := s.Save(Credentials{APIKey: "PKABCDEF1234", APISecret: "abcdefghijklmnopqrstuvwxyz012345"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, path := range []string{s.configPath, s.keyPath} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("%s mode = %o, want 600", path, perm)
		}
	}
}

func TestLoadNotConfigured(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Load(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Load() on empty store = %v, want ErrNotConfigured", err)
	}
}

func TestSetAlpacaValidation(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetAlpaca("short", "abcdefghijklmnopqrstuvwxyz012345", true); err == nil {
		t.Error("SetAlpaca accepted malformed api key")
	}
	if err := s.SetAlpaca("PKABCDEF1234", "tooshort", true); err == nil {
		t.Error("SetAlpaca accepted malformed api secret")
	}

	if err := s.SetAlpaca("PKABCDEF1234", "abcdefghijklmnopqrstuvwxyz012345", false); err != nil {
		t.Fatalf("SetAlpaca: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.BaseURL != LiveBaseURL {
		t.Errorf("BaseURL = %q, want live endpoint", got.BaseURL)
	}
	if got.Paper() {
		t.Error("Paper() = true for live base URL")
	}
}
