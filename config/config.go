package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	Address  string `yaml:"address"`
	Dir      string `yaml:"dir"`
	Format   string `yaml:"format"`
	Encoding string `yaml:"encoding"`
	Export   string `yaml:"export"`
	Output   string `yaml:"output"`
	Verbose  bool   `yaml:"verbose"`
}

func DefaultSettings() Settings {
	return Settings{
		Address:  ":8000",
		Format:   FormatH2.String(),
		Encoding: GetEncoding().String(),
		Export:   "gltf",
		Output:   ".",
	}
}

// LoadSettings reads a yaml settings file over the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	f, err := os.Open(path)
	if err != nil {
		return s, errors.Wrapf(err, "Failed to open settings %q", path)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return s, errors.Wrapf(err, "Failed to decode settings %q", path)
	}
	return s, nil
}

// Apply installs the process-wide parts of the settings. Call once at startup.
func (s Settings) Apply() error {
	format, err := ParseFileFormat(s.Format)
	if err != nil {
		return err
	}
	SetFileFormat(format)

	if s.Encoding != "" {
		if err := SetEncoding(s.Encoding); err != nil {
			return err
		}
	}
	return nil
}
