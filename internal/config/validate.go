package config

import (
	"fmt"
	"strings"
)

// normalize expands and absolutizes all configured paths.
func (c *Config) normalize() error {
	var err error
	if c.Paths.ProjectDir != "" {
		if c.Paths.ProjectDir, err = expandPath(c.Paths.ProjectDir); err != nil {
			return err
		}
	}
	if c.Paths.LogDir != "" {
		if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
			return err
		}
	}
	if c.Tables.WashPatch != "" {
		if c.Tables.WashPatch, err = expandPath(c.Tables.WashPatch); err != nil {
			return err
		}
	}
	if c.Tables.FmapOverride != "" {
		if c.Tables.FmapOverride, err = expandPath(c.Tables.FmapOverride); err != nil {
			return err
		}
	}
	c.Convert.Defacer = strings.ToLower(strings.TrimSpace(c.Convert.Defacer))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Convert.Defacer {
	case DefacerAfni, DefacerPydeface:
	default:
		return fmt.Errorf("convert.defacer: unsupported value %q (want %q or %q)",
			c.Convert.Defacer, DefacerAfni, DefacerPydeface)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}

	for _, bin := range []struct{ name, value string }{
		{"convert.dcm2niix_bin", c.Convert.Dcm2niixBin},
		{"convert.org_dcms_bin", c.Convert.OrgDcmsBin},
	} {
		if strings.TrimSpace(bin.value) == "" {
			return fmt.Errorf("%s: must not be empty", bin.name)
		}
	}
	return nil
}
