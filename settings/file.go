package settings

import (
	"os"
	"path/filepath"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/gruntwork-io/go-commons/files"
	"gopkg.in/yaml.v3"

	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/logger"
)

const (
	appDir   = "tempo"
	fileName = "settings.yaml"
)

// DefaultPath returns the settings file location inside the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.WithStackTrace(err)
	}
	return filepath.Join(dir, appDir, fileName), nil
}

// FileStore persists settings as a YAML document.
type FileStore struct {
	path string
	cfg  config.MetronomeConfig
}

// NewFileStore returns a store for path. Values loaded from it are normalized against cfg.
func NewFileStore(path string, cfg config.MetronomeConfig) *FileStore {
	return &FileStore{path: path, cfg: cfg}
}

// Path returns the file the store reads and writes.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the document. A missing file yields the defaults. Fields absent from the document
// keep their default values.
func (f *FileStore) Load() (Settings, error) {
	s := Defaults(f.cfg)
	if !files.FileExists(f.path) {
		logger.WithComponent("settings").WithField("path", f.path).Info("no settings file, using defaults")
		return s, nil
	}

	b, err := os.ReadFile(f.path)
	if err != nil {
		return s, errors.WithStackTrace(err)
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Defaults(f.cfg), errors.WithStackTrace(err)
	}
	return s.Normalize(f.cfg), nil
}

// Save writes the document, replacing the previous one atomically.
func (f *FileStore) Save(s Settings) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.WithStackTrace(err)
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		return errors.WithStackTrace(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), fileName+".*")
	if err != nil {
		return errors.WithStackTrace(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.WithStackTrace(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStackTrace(err)
	}
	return errors.WithStackTrace(os.Rename(tmp.Name(), f.path))
}
