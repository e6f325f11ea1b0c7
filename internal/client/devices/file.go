package devices

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FileRecorder is the CLI stand-in for a microphone: Start checks the sample
// file is readable, Stop returns its contents. Real deployments plug in a
// platform recorder behind the same interface.
type FileRecorder struct {
	Path    string
	started bool
}

func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{Path: path}
}

func (r *FileRecorder) Start(ctx context.Context) error {
	info, err := os.Stat(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, r.Path)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, r.Path)
		}
		return fmt.Errorf("failed to open sample source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotFound, r.Path)
	}
	r.started = true
	return nil
}

func (r *FileRecorder) Stop() ([]byte, error) {
	if !r.started {
		return nil, nil
	}
	r.started = false

	data, err := os.ReadFile(r.Path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, r.Path)
		}
		return nil, fmt.Errorf("failed to read sample source: %w", err)
	}
	return data, nil
}

// FileScanner is the CLI stand-in for a camera: Decode returns the contents
// of the payload file, trimmed. Real deployments plug in a QR decoder behind
// the same interface.
type FileScanner struct {
	Path string
}

func NewFileScanner(path string) *FileScanner {
	return &FileScanner{Path: path}
}

func (s *FileScanner) Decode(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, s.Path)
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("%w: %s", ErrPermissionDenied, s.Path)
		}
		return "", fmt.Errorf("failed to read scan source: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
