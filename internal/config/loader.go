package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvVar names the environment variable holding the default config path.
const EnvVar = "FALCON_CONF"

// ErrNoConfig is returned by ResolvePath when neither an explicit path nor
// the FALCON_CONF environment variable is available.
var ErrNoConfig = errors.New("env variable `" + EnvVar + "` is not found")

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the process environment. Missing files are ignored; variables that
// are already set are not overwritten.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// ResolvePath returns explicit when it is non-blank, otherwise the value of
// FALCON_CONF.
func ResolvePath(explicit string) (string, error) {
	if p := strings.TrimSpace(explicit); p != "" {
		return p, nil
	}
	if p := strings.TrimSpace(os.Getenv(EnvVar)); p != "" {
		return p, nil
	}
	return "", ErrNoConfig
}

// Load reads and decodes the configuration file at path.
//
// The format follows the file extension: .yaml/.yml, .json, anything else is
// read as TOML. ${VAR} references are replaced with environment values before
// decoding.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, formatOf(path))
}

// Parse decodes configuration bytes in the given viper format
// ("toml", "yaml", "json").
func Parse(data []byte, format string) (Config, error) {
	var cfg Config

	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader([]byte(substituteEnvVars(string(data))))); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return "toml"
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// A bare $ is left alone so replacement values like "$5" survive.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
