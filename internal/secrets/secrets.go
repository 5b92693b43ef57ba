// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and contact addresses from a directory of
// plain-text files and from an optional .env file.
//
// In the secrets directory each file is one secret: the filename is the key
// name and the file contents (trimmed) are the value. Known keys are listed
// below; each can also be given through its environment variable.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Known secret names and the environment variables that back them.
const (
	OpenAIAPIKey   = "openai-api-key"
	OpenAlexEmail  = "openalex-email"
	CrossrefMailto = "crossref-mailto"
)

// EnvVars maps each known secret to its environment variable.
var EnvVars = map[string]string{
	OpenAIAPIKey:   "OPENAI_API_KEY",
	OpenAlexEmail:  "OPENALEX_EMAIL",
	CrossrefMailto: "CROSSREF_MAILTO",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// Lookup returns the value for a known secret: the secrets-directory entry
// if present, else its environment variable.
func Lookup(secrets map[string]string, key string) string {
	if v := secrets[key]; v != "" {
		return v
	}
	if env, ok := EnvVars[key]; ok {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}
