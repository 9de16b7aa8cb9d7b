// Package settings locates and loads the Transifex API token.
//
// The token is a single opaque string stored in a local file named
// transifex_api_token. Lookup order:
//
//  1. --token-file flag (explicit path)
//  2. TXPULL_TOKEN environment variable (the token itself)
//  3. TXPULL_TOKEN_FILE environment variable (a file path)
//  4. ./transifex_api_token
//  5. transifex_api_token next to the txpull executable
//
// A missing or empty token is a fatal configuration error: the caller
// is expected to log it and exit non-zero.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// TokenFileName is the default token file name.
const TokenFileName = "transifex_api_token"

// envVars are the environment overrides, parsed with caarlos0/env.
type envVars struct {
	Token     string `env:"TXPULL_TOKEN"`
	TokenFile string `env:"TXPULL_TOKEN_FILE"`
}

// LoadToken resolves the API token. explicitPath, when non-empty, must
// point at a readable token file; the fallback chain is not consulted.
func LoadToken(explicitPath string) (string, error) {
	if explicitPath != "" {
		return readTokenFile(explicitPath)
	}

	var vars envVars
	if err := env.Parse(&vars); err != nil {
		return "", fmt.Errorf("reading environment: %w", err)
	}
	if vars.Token != "" {
		return strings.TrimSpace(vars.Token), nil
	}
	if vars.TokenFile != "" {
		return readTokenFile(vars.TokenFile)
	}

	if _, err := os.Stat(TokenFileName); err == nil {
		return readTokenFile(TokenFileName)
	}

	if exe, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(exe), TokenFileName)
		if _, err := os.Stat(path); err == nil {
			return readTokenFile(path)
		}
	}

	return "", fmt.Errorf("unable to find API token file %s (set TXPULL_TOKEN or pass --token-file)", TokenFileName)
}

func readTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return token, nil
}
