// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the trimmed file contents are the value.
//
// Supported key files: scopus-api-key.
package secrets

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ScopusKey is the secret file holding the Elsevier API key.
const ScopusKey = "scopus-api-key"

// LegacyKeyFile is the single-line key file older workflows keep next to
// their data.
const LegacyKeyFile = "Scopus.txt"

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error. Unreadable files are logged
// and skipped.
func Load(dir string, log zerolog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// ReadLegacyKey returns the first line of path, trimmed. A missing file
// yields "" and no error.
func ReadLegacyKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if sc.Scan() {
		return strings.TrimSpace(sc.Text()), nil
	}
	return "", sc.Err()
}

// ResolveScopusKey picks the API key in priority order: an explicit value
// (flag, env or config), the secrets directory, then the legacy key file.
func ResolveScopusKey(explicit string, loaded map[string]string, legacyPath string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if v, ok := loaded[ScopusKey]; ok {
		return v, nil
	}
	key, err := ReadLegacyKey(legacyPath)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("no Scopus API key: set SCOPUS_API_KEY, .secrets/%s or %s", ScopusKey, LegacyKeyFile)
	}
	return key, nil
}
