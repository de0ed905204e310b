// Package namestore persists the name used to greet the user.
package namestore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	appLog "dailybrief/internal/log"
)

// ErrNoName is returned when no name is stored and none could be asked for.
var ErrNoName = errors.New("no user name available")

const prompt = "What's your name? "

// Store keeps the name in a single UTF-8 text file.
type Store struct {
	Path string
}

func New(path string) *Store {
	return &Store{Path: path}
}

// Load returns the stored name, or ErrNoName when the file is missing or
// blank.
func (s *Store) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoName
		}
		return "", fmt.Errorf("read name file: %w", err)
	}
	name := strings.TrimSpace(string(b))
	if name == "" {
		return "", ErrNoName
	}
	return name, nil
}

// Save writes name via temp file + rename with mode 0600.
func (s *Store) Save(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNoName
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create name dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".user_name-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp name file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(name); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp name file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp name file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp name file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("rename name file: %w", err)
	}
	return nil
}

// Resolve returns the stored name. When none is stored and interactive is
// true it asks once on out, reads a line from in and saves the answer.
// A save failure is logged; the name is still used for this run.
func (s *Store) Resolve(in io.Reader, out io.Writer, interactive bool) (string, error) {
	name, err := s.Load()
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, ErrNoName) {
		appLog.Warn("could not read stored name", "path", s.Path, "error", err)
	}
	if !interactive {
		return "", ErrNoName
	}

	if _, err := io.WriteString(out, prompt); err != nil {
		return "", fmt.Errorf("prompt for name: %w", err)
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read name: %w", err)
	}
	name = strings.TrimSpace(line)
	if name == "" {
		return "", ErrNoName
	}

	if err := s.Save(name); err != nil {
		appLog.Error("failed to save user name", err, "path", s.Path)
	} else {
		appLog.Info("saved user name", "path", s.Path)
	}
	return name, nil
}
