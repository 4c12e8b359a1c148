// Package env loads .env files into the process environment before
// configuration is read.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const defaultAppEnv = "dev"

type Loaded struct {
	AppEnv string
	Files  []string
}

// Load reads dir/.env and then dir/.env.<APP_ENV>, the latter overriding.
// Missing files are skipped; malformed ones are an error.
func Load(dir string) (Loaded, error) {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = defaultAppEnv
	}
	loaded := Loaded{AppEnv: appEnv}

	base := filepath.Join(dir, ".env")
	if err := godotenv.Load(base); err == nil {
		loaded.Files = append(loaded.Files, base)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return loaded, fmt.Errorf("load %s: %w", base, err)
	}

	envFile := filepath.Join(dir, ".env."+appEnv)
	if err := godotenv.Overload(envFile); err == nil {
		loaded.Files = append(loaded.Files, envFile)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return loaded, fmt.Errorf("load %s: %w", envFile, err)
	}

	return loaded, nil
}
