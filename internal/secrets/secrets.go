// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files,
// one secret per file: the filename is the key and the trimmed contents
// are the value. An environment variable can stand in for each file.
//
// Supported keys: mapbox-access-token (env TRIAL_FINDER_MAPBOX_TOKEN).
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/trial-finder/internal/logging"
)

// DefaultDir is where the CLI looks for secret files.
const DefaultDir = ".secrets/"

// MapboxToken is the key of the Mapbox geocoding access token.
const MapboxToken = "mapbox-access-token"

// envVars maps secret keys to the environment variables that override them.
var envVars = map[string]string{
	MapboxToken: "TRIAL_FINDER_MAPBOX_TOKEN",
}

// Store holds loaded secrets by key.
type Store map[string]string

// Load reads all files in dir. A missing directory is not an error; Load
// returns an empty store. Unreadable files are logged and skipped.
func Load(dir string, logger *logrus.Logger) (Store, error) {
	logger = logging.OrDiscard(logger)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	store := make(Store)
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
			logger.WithError(err).WithField("secret", name).Warn("could not read secret")
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			store[name] = value
		}
	}

	return store, nil
}

// Get returns the secret for key. A non-empty environment override wins
// over the file value.
func (s Store) Get(key string) string {
	if env, ok := envVars[key]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	return s[key]
}
