package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultDataDirName = ".ircbot"

// ResolveRoot normalizes the data directory and creates it when missing.
//
// An empty path selects ~/.ircbot.
func ResolveRoot(dataDir string) (string, error) {
	trimmed := strings.TrimSpace(dataDir)
	if trimmed == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed = filepath.Join(homeDir, defaultDataDirName)
	}

	expanded, err := expandHome(trimmed)
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve absolute data directory: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	if err := os.MkdirAll(cleanPath, 0o755); err != nil {
		return "", NormalizeIOError(err, "create data directory")
	}

	return cleanPath, nil
}

// ResolveFile places a relative file path under root and makes sure its
// parent directory exists. Absolute and ~-prefixed paths are kept as given.
func ResolveFile(root string, path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", NewError(ErrorPathNotFound, "file path must not be empty")
	}

	expanded, err := expandHome(trimmed)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(root, expanded)
	}

	resolved := filepath.Clean(expanded)
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", NormalizeIOError(err, "create parent directory")
	}

	return resolved, nil
}

func expandHome(path string) (string, error) {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return home, nil
	}

	prefix := "~" + string(filepath.Separator)
	if strings.HasPrefix(path, prefix) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, prefix)), nil
	}

	return path, nil
}
