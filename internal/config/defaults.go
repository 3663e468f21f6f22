package config

import (
	"os"
	"path/filepath"
)

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir(),
		},
		Convert: Convert{
			Dcm2niixBin: "dcm2niix",
			OrgDcmsBin:  "org_dcms.sh",
			RefacerBin:  "@afni_refacer_run",
			PydefaceBin: "pydeface",
			Defacer:     DefacerAfni,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

func defaultLogDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && base != "" {
		return filepath.Join(base, "bidsbuild")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "bidsbuild")
}
