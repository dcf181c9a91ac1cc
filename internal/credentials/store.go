// Package credentials persists brokerage API credentials in a local JSON
// file with the key and secret encrypted at rest (AES-256-CBC, random IV
// prefixed to the ciphertext, base64 encoded). The AES key lives in a
// sibling raw-bytes file; both files are created with mode 0600.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

const (
	// PaperBaseURL is the Alpaca paper-trading endpoint, the default
	// environment for newly configured accounts.
	PaperBaseURL = "https://paper-api.alpaca.markets"

	// LiveBaseURL is the Alpaca live-trading endpoint.
	LiveBaseURL = "https://api.alpaca.markets"
)

// ErrNotConfigured is returned by Load when no credential file exists or the
// stored credentials are incomplete.
var ErrNotConfigured = errors.New("credentials: not configured")

var (
	apiKeyPattern    = regexp.MustCompile(`^[A-Z0-9]{12,}$`)
	apiSecretPattern = regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`)
)

// Credentials holds a decrypted brokerage key pair and the environment it
// belongs to.
type Credentials struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

// Paper reports whether the credentials target the paper-trading
// environment.
func (c Credentials) Paper() bool {
	return c.BaseURL != LiveBaseURL
}

// fileFormat is the on-disk JSON shape. KeyEnc and SecretEnc are base64
// AES-CBC ciphertexts; BaseURL is stored in plaintext.
type fileFormat struct {
	Alpaca struct {
		APIKey    string `json:"api_key"`
		APISecret string `json:"api_secret"`
		BaseURL   string `json:"base_url"`
	} `json:"alpaca"`
}

// Store reads and writes the encrypted credential file.
type Store struct {
	configPath string
	keyPath    string
	log        *slog.Logger
}

// NewStore creates a Store using the given file paths.
func NewStore(configPath, keyPath string, log *slog.Logger) *Store {
	return &Store{
		configPath: configPath,
		keyPath:    keyPath,
		log:        log,
	}
}

// DefaultPaths returns the default config and key file locations under the
// user's home directory (~/.aibroker/config.json and ~/.aibroker/.secret_key).
func DefaultPaths() (configPath, keyPath string, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".aibroker")
	return filepath.Join(dir, "config.json"), filepath.Join(dir, ".secret_key"), nil
}

// ValidAPIKey reports whether apiKey has the accepted shape: 12+ uppercase
// alphanumerics.
func ValidAPIKey(apiKey string) bool { return apiKeyPattern.MatchString(apiKey) }

// ValidAPISecret reports whether apiSecret has the accepted shape: 32+
// alphanumerics.
func ValidAPISecret(apiSecret string) bool { return apiSecretPattern.MatchString(apiSecret) }

// ValidateKeyFormat applies basic shape checks to a key pair before it is
// accepted: keys are 12+ uppercase alphanumerics, secrets 32+ alphanumerics.
func ValidateKeyFormat(apiKey, apiSecret string) error {
	if !apiKeyPattern.MatchString(apiKey) {
		return errors.New("invalid API key format")
	}
	if !apiSecretPattern.MatchString(apiSecret) {
		return errors.New("invalid API secret format")
	}
	return nil
}

// Load reads and decrypts the stored credentials. It returns
// ErrNotConfigured when the file does not exist or any field is missing.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("reading credential file: %w", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parsing credential file: %w", err)
	}
	if ff.Alpaca.APIKey == "" || ff.Alpaca.APISecret == "" {
		return nil, ErrNotConfigured
	}

	key, err := s.readKey()
	if err != nil {
		return nil, err
	}

	apiKey, err := decryptValue(key, ff.Alpaca.APIKey)
	if err != nil {
		return nil, fmt.Errorf("decrypting api key: %w", err)
	}
	apiSecret, err := decryptValue(key, ff.Alpaca.APISecret)
	if err != nil {
		return nil, fmt.Errorf("decrypting api secret: %w", err)
	}

	baseURL := ff.Alpaca.BaseURL
	if baseURL == "" {
		baseURL = PaperBaseURL
	}

	return &Credentials{APIKey: apiKey, APISecret: apiSecret, BaseURL: baseURL}, nil
}

// Save encrypts and writes the credentials, creating the directory and AES
// key file on first use.
func (s *Store) Save(creds Credentials) error {
	if creds.APIKey == "" || creds.APISecret == "" {
		return errors.New("api key and secret are required")
	}

	if err := os.MkdirAll(filepath.Dir(s.configPath), 0o700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}

	key, err := s.ensureKey()
	if err != nil {
		return err
	}

	var ff fileFormat
	ff.Alpaca.APIKey, err = encryptValue(key, creds.APIKey)
	if err != nil {
		return fmt.Errorf("encrypting api key: %w", err)
	}
	ff.Alpaca.APISecret, err = encryptValue(key, creds.APISecret)
	if err != nil {
		return fmt.Errorf("encrypting api secret: %w", err)
	}
	ff.Alpaca.BaseURL = creds.BaseURL
	if ff.Alpaca.BaseURL == "" {
		ff.Alpaca.BaseURL = PaperBaseURL
	}

	data, err := json.MarshalIndent(&ff, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credential file: %w", err)
	}
	if err := os.WriteFile(s.configPath, data, 0o600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}

	s.log.Info("credentials saved", "path", s.configPath, "paper", creds.Paper())
	return nil
}

// SetAlpaca validates and stores a key pair, selecting the paper or live
// base URL.
func (s *Store) SetAlpaca(apiKey, apiSecret string, paper bool) error {
	if err := ValidateKeyFormat(apiKey, apiSecret); err != nil {
		return err
	}
	baseURL := PaperBaseURL
	if !paper {
		baseURL = LiveBaseURL
	}
	return s.Save(Credentials{APIKey: apiKey, APISecret: apiSecret, BaseURL: baseURL})
}

// readKey loads the AES key file.
func (s *Store) readKey() ([]byte, error) {
	key, err := os.ReadFile(s.keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("key file %s: expected %d bytes, got %d", s.keyPath, keySize, len(key))
	}
	return key, nil
}

// ensureKey loads the AES key file, generating a fresh key with mode 0600 if
// none exists.
func (s *Store) ensureKey() ([]byte, error) {
	key, err := os.ReadFile(s.keyPath)
	if err == nil {
		if len(key) != keySize {
			return nil, fmt.Errorf("key file %s: expected %d bytes, got %d", s.keyPath, keySize, len(key))
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	key, err = generateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(s.keyPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(s.keyPath, key, 0o600); err != nil {
		return nil, fmt.Errorf("writing key file: %w", err)
	}
	s.log.Info("generated new encryption key", "path", s.keyPath)
	return key, nil
}
