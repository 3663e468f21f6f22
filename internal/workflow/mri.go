package workflow

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"bidsbuild/internal/bids"
	"bidsbuild/internal/dicomscan"
	"bidsbuild/internal/fileutil"
	"bidsbuild/internal/logging"
	"bidsbuild/internal/services"
)

// runMRI converts a session's DICOMs into the BIDS layout: survey,
// organize the dump, dcm2niix, rename into place, sidecar updates, and
// optional defacing.
func (b *Builder) runMRI(ctx context.Context, sess Session) error {
	logger := logging.WithSubject(b.logger, sess.Subject, sess.Name)

	dicomDir := filepath.Join(sess.SourceDir, "DICOM")
	if !fileutil.Exists(dicomDir) {
		return services.Wrap(services.ErrNotFound, "mri", "locate dicoms",
			"no DICOM directory in "+sess.SourceDir, nil)
	}

	survey, err := dicomscan.Scan(dicomDir)
	if err != nil {
		return services.Wrap(services.ErrTransient, "mri", "survey dicoms", "", err)
	}
	if survey.Total == 0 {
		return services.Wrap(services.ErrNotFound, "mri", "survey dicoms",
			"no dicom files in "+dicomDir, nil)
	}
	for _, series := range survey.Series {
		logger.Debug("dicom series",
			slog.String("series_dir", series.Dir),
			slog.String("description", series.Description),
			slog.Int("file_count", series.FileCount))
		if series.Dir == "." || strings.Contains(strings.ToLower(series.Dir), "localizer") {
			continue
		}
		if _, err := bids.Resolve("DICOM_"+series.Dir, sess.Subject, sess.Name, sess.Task); err != nil {
			logger.Warn("dicom series not in naming table", slog.String("series_dir", series.Dir))
		}
	}

	if err := b.conv.OrganizeDicoms(ctx, dicomDir); err != nil {
		return err
	}

	outDir := b.rawSessionDir(sess)
	if fileutil.Exists(filepath.Join(outDir, "anat")) {
		logger.Debug("session already organized", slog.String("out_dir", outDir))
	} else {
		if _, err := b.conv.ConvertDicoms(ctx, dicomDir, outDir); err != nil {
			return err
		}
		if _, err := bids.Organize(outDir, sess.Subject, sess.Name, sess.Task); err != nil {
			return err
		}
	}

	if err := bids.UpdateFuncSidecars(outDir); err != nil {
		return err
	}
	if err := bids.UpdateFmapSidecars(outDir, sess.Subject, sess.Name, b.tables.FmapOverride); err != nil {
		return err
	}

	if b.opts.Deface {
		t1s, err := filepath.Glob(filepath.Join(outDir, "anat", "*T1w.nii.gz"))
		if err != nil {
			return err
		}
		if _, err := b.conv.Deface(ctx, t1s, b.cfg.Derivatives(), sess.Subject, sess.Name); err != nil {
			return err
		}
	}
	return nil
}
