package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bidsbuild/internal/config"
	"bidsbuild/internal/fileutil"
	"bidsbuild/internal/logging"
	"bidsbuild/internal/services"
)

// Converter wraps the external conversion tools behind one handle.
type Converter struct {
	cfg    *config.Config
	logger *slog.Logger
	exec   Executor
}

// Option configures the converter.
type Option func(*Converter)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Converter) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// New constructs a converter using the configured tool binaries.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Converter {
	c := &Converter{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "convert"),
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OrganizeDicoms runs the shell script that sorts a raw scanner dump into
// per-protocol DICOM directories. Skips when the session is already
// organized (the anatomical protocol directory exists).
func (c *Converter) OrganizeDicoms(ctx context.Context, dicomDir string) error {
	anatDir := filepath.Join(dicomDir, "EmoRep_anat")
	if fileutil.Exists(anatDir) {
		c.logger.Debug("dicoms already organized", slog.String("dicom_dir", dicomDir))
		return nil
	}

	stdout, stderr, err := c.exec.Run(ctx, c.cfg.Convert.OrgDcmsBin, []string{"-d", dicomDir})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "mri", "organize dicoms",
			toolOutput(stdout, stderr), err)
	}
	if !fileutil.Exists(anatDir) {
		return services.Wrap(services.ErrExternalTool, "mri", "organize dicoms",
			fmt.Sprintf("no EmoRep_anat directory after organizing: %s", toolOutput(stdout, stderr)), nil)
	}
	c.logger.Info("dicoms organized", slog.String("dicom_dir", dicomDir))
	return nil
}

// ConvertDicoms runs dcm2niix over the organized DICOM tree, writing
// compressed NIfTIs and sidecars into outDir. Localizer series are
// discarded. Returns the NIfTI paths, sorted. Skips when outDir already
// holds NIfTIs.
func (c *Converter) ConvertDicoms(ctx context.Context, dicomDir, outDir string) ([]string, error) {
	existing, err := filepath.Glob(filepath.Join(outDir, "*.nii.gz"))
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		sort.Strings(existing)
		c.logger.Debug("niftis already exist, skipping dcm2niix", slog.String("out_dir", outDir))
		return existing, nil
	}

	if err := fileutil.EnsureDir(outDir); err != nil {
		return nil, err
	}
	args := []string{"-a", "y", "-ba", "y", "-z", "y", "-o", outDir, dicomDir}
	stdout, stderr, err := c.exec.Run(ctx, c.cfg.Convert.Dcm2niixBin, args)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "mri", "dcm2niix",
			toolOutput(stdout, stderr), err)
	}

	// Localizer series are scanner positioning scans, not data.
	localizers, err := filepath.Glob(filepath.Join(outDir, "DICOM_localizer*"))
	if err != nil {
		return nil, err
	}
	for _, path := range localizers {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove localizer %s: %w", path, err)
		}
	}

	niftis, err := filepath.Glob(filepath.Join(outDir, "*.nii.gz"))
	if err != nil {
		return nil, err
	}
	sidecars, err := filepath.Glob(filepath.Join(outDir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(niftis) == 0 || len(niftis) != len(sidecars) {
		return nil, services.Wrap(services.ErrExternalTool, "mri", "dcm2niix",
			fmt.Sprintf("%d niftis and %d sidecars produced: %s",
				len(niftis), len(sidecars), toolOutput(stdout, stderr)), nil)
	}
	sort.Strings(niftis)
	c.logger.Info("dcm2niix finished",
		slog.String("out_dir", outDir), slog.Int("nifti_count", len(niftis)))
	return niftis, nil
}

// Deface removes facial features from each T1w volume, writing the result
// under derivDir/deface/<subject>/<session>. Already-defaced volumes are
// skipped. Returns the defaced paths.
func (c *Converter) Deface(ctx context.Context, t1Paths []string, derivDir, subject, session string) ([]string, error) {
	outDir := filepath.Join(derivDir, "deface", subject, session)
	if err := fileutil.EnsureDir(outDir); err != nil {
		return nil, err
	}

	var defaced []string
	for _, t1 := range t1Paths {
		stem := strings.TrimSuffix(filepath.Base(t1), ".nii.gz")
		out := filepath.Join(outDir, stem+"_defaced.nii.gz")
		if fileutil.Exists(out) {
			c.logger.Debug("defaced volume exists", slog.String("path", out))
			defaced = append(defaced, out)
			continue
		}

		var err error
		switch c.cfg.Convert.Defacer {
		case config.DefacerPydeface:
			err = c.runPydeface(ctx, t1, out)
		default:
			err = c.runRefacer(ctx, t1, out, derivDir, subject, session, stem)
		}
		if err != nil {
			return nil, err
		}
		if !fileutil.Exists(out) {
			return nil, services.Wrap(services.ErrExternalTool, "mri", "deface",
				fmt.Sprintf("no defaced output at %s", out), nil)
		}
		defaced = append(defaced, out)
		c.logger.Info("defaced anatomical",
			slog.String(logging.FieldSubject, subject),
			slog.String(logging.FieldSession, session),
			slog.String("path", out))
	}
	return defaced, nil
}

// runRefacer drives @afni_refacer_run, which writes a family of outputs
// next to its prefix. The work happens in a scratch directory under
// derivatives/reface that is removed after the defaced volume is copied
// out.
func (c *Converter) runRefacer(ctx context.Context, t1, out, derivDir, subject, session, stem string) error {
	workDir := filepath.Join(derivDir, "reface", subject, session)
	if err := fileutil.EnsureDir(workDir); err != nil {
		return err
	}
	prefix := filepath.Join(workDir, "tmp_"+stem)

	args := []string{"-input", t1, "-mode_deface", "-prefix", prefix}
	stdout, stderr, err := c.exec.Run(ctx, c.cfg.Convert.RefacerBin, args)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "mri", "afni refacer",
			toolOutput(stdout, stderr), err)
	}

	produced := prefix + ".nii.gz"
	if !fileutil.Exists(produced) {
		return services.Wrap(services.ErrExternalTool, "mri", "afni refacer",
			fmt.Sprintf("refacer produced no volume at %s: %s", produced, toolOutput(stdout, stderr)), nil)
	}
	if err := fileutil.CopyFile(produced, out); err != nil {
		return fmt.Errorf("copy defaced volume: %w", err)
	}
	if err := os.RemoveAll(workDir); err != nil {
		return fmt.Errorf("remove refacer scratch: %w", err)
	}
	return nil
}

func (c *Converter) runPydeface(ctx context.Context, t1, out string) error {
	args := []string{t1, "--outfile", out}
	stdout, stderr, err := c.exec.Run(ctx, c.cfg.Convert.PydefaceBin, args)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "mri", "pydeface",
			toolOutput(stdout, stderr), err)
	}
	return nil
}

// toolOutput folds captured stdout and stderr into one diagnostic string.
func toolOutput(stdout, stderr string) string {
	stdout = strings.TrimSpace(stdout)
	stderr = strings.TrimSpace(stderr)
	switch {
	case stdout == "" && stderr == "":
		return "no tool output"
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stdout + "; " + stderr
	}
}
