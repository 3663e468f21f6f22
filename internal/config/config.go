package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Defacer modes supported by [convert].defacer.
const (
	DefacerAfni     = "afni"
	DefacerPydeface = "pydeface"
)

// Paths contains project directory configuration. ProjectDir is the BIDS
// parent directory holding sourcedata/ and rawdata/.
type Paths struct {
	ProjectDir string `toml:"project_dir"`
	LogDir     string `toml:"log_dir"`
}

// Convert contains external tool configuration for DICOM conversion and
// defacing.
type Convert struct {
	Dcm2niixBin string `toml:"dcm2niix_bin"`
	OrgDcmsBin  string `toml:"org_dcms_bin"`
	RefacerBin  string `toml:"refacer_bin"`
	PydefaceBin string `toml:"pydeface_bin"`
	Defacer     string `toml:"defacer"`
}

// Tables points at optional JSON files overriding the built-in one-off
// patch tables. Empty values select the embedded defaults.
type Tables struct {
	WashPatch    string `toml:"wash_patch"`
	FmapOverride string `toml:"fmap_override"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for bidsbuild.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Convert Convert `toml:"convert"`
	Tables  Tables  `toml:"tables"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bidsbuild/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was actually found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("bidsbuild.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// Sourcedata returns the project sourcedata directory.
func (c *Config) Sourcedata() string {
	return filepath.Join(c.Paths.ProjectDir, "sourcedata")
}

// Rawdata returns the project rawdata directory.
func (c *Config) Rawdata() string {
	return filepath.Join(c.Paths.ProjectDir, "rawdata")
}

// Derivatives returns the project derivatives directory.
func (c *Config) Derivatives() string {
	return filepath.Join(c.Paths.ProjectDir, "derivatives")
}

// EnsureDirectories creates the directories a build run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Rawdata(), c.Derivatives(), c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DefacerBinary returns the executable for the configured defacing mode.
func (c *Config) DefacerBinary() string {
	if c.Convert.Defacer == DefacerPydeface {
		return c.Convert.PydefaceBin
	}
	return c.Convert.RefacerBin
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
