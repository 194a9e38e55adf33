// Package storage keeps generated templates on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ErrPathEscape is returned for paths outside the base directory
var ErrPathEscape = errors.New("path escapes base directory")

const templateExt = ".xlsx"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// TemplateStore writes and reads generated workbooks under one directory
type TemplateStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewTemplateStore creates a new TemplateStore
func NewTemplateStore(baseDir string, logger *zap.Logger) *TemplateStore {
	return &TemplateStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// BaseDir returns the storage root
func (s *TemplateStore) BaseDir() string {
	return s.baseDir
}

// FileName builds a filesystem-safe template name from its parts; empty
// parts are skipped.
func (s *TemplateStore) FileName(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = SanitizeName(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		kept = []string{"template"}
	}
	return strings.Join(kept, "_") + templateExt
}

// Save writes content as name under the base directory and returns its path.
func (s *TemplateStore) Save(name string, content []byte) (string, error) {
	fullPath := filepath.Join(s.baseDir, name)
	if err := s.ValidatePath(fullPath); err != nil {
		return "", err
	}

	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("path", parentDir),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write file",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Template saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))
	return fullPath, nil
}

// Open opens a previously saved template for reading
func (s *TemplateStore) Open(fullPath string) (*os.File, error) {
	if err := s.ValidatePath(fullPath); err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	return f, nil
}

// ValidatePath checks that the path resolves inside the base directory
func (s *TemplateStore) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrPathEscape, fullPath)
	}
	return nil
}

// SanitizeName keeps only letters, digits, hyphens and underscores;
// spaces become hyphens.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
	return unsafeChars.ReplaceAllString(name, "")
}
