package main

import (
	"errors"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"bidsbuild/internal/config"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// projectConfig applies the --proj-dir override and requires a project
// directory to be set one way or the other.
func (c *commandContext) projectConfig(projDir string) (*config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if dir := strings.TrimSpace(projDir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return nil, err
		}
		cfg.Paths.ProjectDir = expanded
	}
	if strings.TrimSpace(cfg.Paths.ProjectDir) == "" {
		return nil, errors.New("project directory not set; use --proj-dir or [paths].project_dir")
	}
	return cfg, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
