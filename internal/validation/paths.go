package validation

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathHandler resolves the files the application reads and writes
type PathHandler struct {
	validator *FilePathValidator
}

func NewPathHandler() *PathHandler {
	return &PathHandler{validator: NewFilePathValidator()}
}

// DBPath returns a validated preferences database path and creates its
// parent directory.
func (ph *PathHandler) DBPath(userPath string) (string, error) {
	if userPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(homeDir, ".subex.db")
	}
	return ph.fileWithParent(userPath)
}

// LogPath returns a validated log file path and creates its parent directory.
func (ph *PathHandler) LogPath(userPath string) (string, error) {
	if userPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(homeDir, ".subex", "subex.log")
	}
	return ph.fileWithParent(userPath)
}

// ConfigPath returns a validated configuration file path.
func (ph *PathHandler) ConfigPath(userPath string) (string, error) {
	if userPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(homeDir, ".config", "subex", "config.toml")
	}
	return ph.validator.ValidateFile(userPath)
}

func (ph *PathHandler) fileWithParent(path string) (string, error) {
	validated, err := ph.validator.ValidateFile(path)
	if err != nil {
		return "", err
	}
	if _, err := ph.validator.ValidateDirectory(filepath.Dir(validated), true); err != nil {
		return "", fmt.Errorf("preparing directory: %w", err)
	}
	return validated, nil
}
