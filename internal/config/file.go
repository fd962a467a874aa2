package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults when neither the config file nor flags say otherwise.
const (
	DefaultServerURL = "http://localhost:4820"
	DefaultChannel   = "main"
)

// File holds operator settings from <home>/config.yaml.
type File struct {
	ServerURL string `yaml:"server_url"`
	APIKey    string `yaml:"api_key"`
	Channel   string `yaml:"channel"`
}

// Path returns the config file path under home.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Load reads <home>/config.yaml. Returns nil config and nil error if the file is missing.
func Load(home string) (*File, error) {
	data, err := os.ReadFile(Path(home))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Save writes the config file under home, creating the directory as needed.
func Save(home string, f *File) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(home), data, 0o644)
}

// Resolved merges the file with flag overrides; empty overrides fall back to
// the file, then to defaults.
func (f *File) Resolved(serverFlag, channelFlag string) (serverURL, apiKey, channel string) {
	serverURL = serverFlag
	channel = channelFlag
	if f != nil {
		apiKey = f.APIKey
		if serverURL == "" {
			serverURL = f.ServerURL
		}
		if channel == "" {
			channel = f.Channel
		}
	}
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return serverURL, apiKey, channel
}
