package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxPathLength bounds database, log and config paths.
const DefaultMaxPathLength = 4096

// FilePathValidator checks paths taken from flags and the config file
type FilePathValidator struct {
	// AllowHomeExpansion determines if tilde expansion is permitted
	AllowHomeExpansion bool
	MaxPathLength      int
}

func NewFilePathValidator() *FilePathValidator {
	return &FilePathValidator{
		AllowHomeExpansion: true,
		MaxPathLength:      DefaultMaxPathLength,
	}
}

// ValidateAndSanitize validates path and returns it cleaned and absolute.
func (v *FilePathValidator) ValidateAndSanitize(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if v.MaxPathLength > 0 && len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}

	if err := validateCharacters(path); err != nil {
		return "", err
	}

	normalizedPath, err := v.normalizePath(path)
	if err != nil {
		return "", fmt.Errorf("path normalization failed: %w", err)
	}

	return normalizedPath, nil
}

func validateCharacters(path string) error {
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path contains null bytes")
	}

	for _, char := range path {
		if char < 32 && char != '\t' {
			return fmt.Errorf("path contains control characters")
		}
	}

	for _, component := range strings.Split(filepath.ToSlash(path), "/") {
		if component == ".." {
			return fmt.Errorf("directory traversal not allowed")
		}
	}

	return nil
}

func (v *FilePathValidator) normalizePath(path string) (string, error) {
	if v.AllowHomeExpansion && len(path) >= 2 && path[:2] == "~/" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	} else if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("tilde expansion not allowed or invalid tilde usage")
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot make path absolute: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// ValidateDirectory ensures a directory path is safe and creates it if necessary
func (v *FilePathValidator) ValidateDirectory(path string, createIfNotExist bool) (string, error) {
	validatedPath, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(validatedPath)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", fmt.Errorf("path exists but is not a directory: %s", validatedPath)
		}
	case os.IsNotExist(err):
		if createIfNotExist {
			if mkErr := os.MkdirAll(validatedPath, 0o755); mkErr != nil {
				return "", fmt.Errorf("failed to create directory: %w", mkErr)
			}
		}
	default:
		return "", fmt.Errorf("checking directory: %w", err)
	}

	return validatedPath, nil
}

// ValidateFile ensures a file path is usable for read/write operations
func (v *FilePathValidator) ValidateFile(path string) (string, error) {
	validatedPath, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(validatedPath); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", validatedPath)
	}

	return validatedPath, nil
}
