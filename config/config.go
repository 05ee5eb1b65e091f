package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultBridgeAddress         = "127.0.0.1:7421"
	defaultRequestTimeoutSeconds = 30
	defaultConnectivitySeconds   = 300
	defaultEncryptionBackend     = "keychain"
	credentialsFileName          = "credentials.db"
	keyFileName                  = "credentials.key"
)

// Settings is the top-level configuration for the remotes service.
type Settings struct {
	Bridge                      BridgeSettings      `yaml:"bridge"`
	DataDir                     string              `yaml:"data_dir"`
	RequestTimeoutSeconds       int                 `yaml:"request_timeout_seconds"`
	ConnectivityIntervalSeconds int                 `yaml:"connectivity_interval_seconds"`
	GitHub                      GitHubSettings      `yaml:"github"`
	AzureDevOps                 AzureDevOpsSettings `yaml:"azure_devops"`
	Encryption                  EncryptionSettings  `yaml:"encryption"`
}

// BridgeSettings configures the local HTTP bridge the UI shell talks to.
type BridgeSettings struct {
	Address string `yaml:"address"` // loopback host:port
}

// GitHubSettings holds the GitHub-specific knobs.
type GitHubSettings struct {
	OAuthClientID string   `yaml:"oauth_client_id"` // OAuth app client id for the device flow
	Scopes        []string `yaml:"scopes"`
	PAT           string   `yaml:"pat"` // Inline, ${ENV_VAR}, or file path
}

// AzureDevOpsSettings holds the Azure DevOps-specific knobs.
type AzureDevOpsSettings struct {
	PAT string `yaml:"pat"` // Inline, ${ENV_VAR}, or file path
}

// EncryptionSettings selects the at-rest encryption backend for stored
// credentials.
type EncryptionSettings struct {
	Backend string `yaml:"backend"`  // "keychain" or "file"
	KeyFile string `yaml:"key_file"` // only for the "file" backend
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Default returns settings that make the service runnable with no config
// file at all.
func Default() *Settings {
	settings := &Settings{}
	settings.applyDefaults()
	return settings
}

// Load reads and parses a configuration file, expanding environment
// variables and resolving token file paths.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var settings Settings
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	settings.applyDefaults()

	// Resolve tokens (env vars and file paths)
	settings.GitHub.PAT = resolveToken(settings.GitHub.PAT)
	settings.AzureDevOps.PAT = resolveToken(settings.AzureDevOps.PAT)

	if validateErr := settings.validate(); validateErr != nil {
		return nil, validateErr
	}

	return &settings, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".markpeek-remotes.yaml",
		".markpeek-remotes.yml",
		"markpeek-remotes.yaml",
		"markpeek-remotes.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// RequestTimeout is the bounded timeout applied to every provider API call.
// It is independent of any device-flow poll interval.
func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// ConnectivityInterval is the period of the background reachability probe.
func (s *Settings) ConnectivityInterval() time.Duration {
	return time.Duration(s.ConnectivityIntervalSeconds) * time.Second
}

// CredentialsPath is the location of the encrypted credential database.
func (s *Settings) CredentialsPath() string {
	return filepath.Join(s.DataDir, credentialsFileName)
}

// KeyFilePath is the master key location used by the "file" encryption
// backend.
func (s *Settings) KeyFilePath() string {
	if s.Encryption.KeyFile != "" {
		return s.Encryption.KeyFile
	}
	return filepath.Join(s.DataDir, keyFileName)
}

func (s *Settings) applyDefaults() {
	if s.Bridge.Address == "" {
		s.Bridge.Address = defaultBridgeAddress
	}
	if s.RequestTimeoutSeconds == 0 {
		s.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if s.ConnectivityIntervalSeconds == 0 {
		s.ConnectivityIntervalSeconds = defaultConnectivitySeconds
	}
	if s.Encryption.Backend == "" {
		s.Encryption.Backend = defaultEncryptionBackend
	}
	if len(s.GitHub.Scopes) == 0 {
		s.GitHub.Scopes = []string{"repo"}
	}
	if s.DataDir == "" {
		s.DataDir = defaultDataDir()
	}
}

func defaultDataDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		logger.Warnf("Failed to determine the user config directory: %v", err)
		return filepath.Join(".", ".markpeek")
	}
	return filepath.Join(configDir, "markpeek")
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	// Expand ${ENV_VAR} references
	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	// If the resolved value is a path to an existing file, read the token from it
	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// validate checks for required configuration values.
func (s *Settings) validate() error {
	if s.Bridge.Address == "" {
		return errors.New("bridge.address is required")
	}
	if s.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf(
			"request_timeout_seconds must be positive, got %d",
			s.RequestTimeoutSeconds,
		)
	}
	if s.ConnectivityIntervalSeconds <= 0 {
		return fmt.Errorf(
			"connectivity_interval_seconds must be positive, got %d",
			s.ConnectivityIntervalSeconds,
		)
	}

	switch s.Encryption.Backend {
	case "keychain", "file":
	default:
		return fmt.Errorf(
			"encryption.backend must be \"keychain\" or \"file\", got %q",
			s.Encryption.Backend,
		)
	}

	return nil
}
