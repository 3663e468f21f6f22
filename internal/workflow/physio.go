package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"bidsbuild/internal/fileutil"
	"bidsbuild/internal/logging"
	"bidsbuild/internal/physio"
	"bidsbuild/internal/services"
)

// runPhysio decodes each BIOPAC recording into tab-separated text and
// copies the original container beside it under the BIDS physio name.
// Undecodable containers are logged and skipped without failing the step.
func (b *Builder) runPhysio(ctx context.Context, sess Session) error {
	logger := logging.WithSubject(b.logger, sess.Subject, sess.Name)

	physDir := filepath.Join(sess.SourceDir, "Scanner_physio")
	if !fileutil.Exists(physDir) {
		return services.Wrap(services.ErrNotFound, "phys", "locate Scanner_physio",
			"no Scanner_physio directory in "+sess.SourceDir, nil)
	}
	files, err := filepath.Glob(filepath.Join(physDir, "*.acq"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return services.Wrap(services.ErrNotFound, "phys", "locate recordings",
			"no acq files in "+physDir, nil)
	}
	sort.Strings(files)

	outDir := filepath.Join(b.rawSessionDir(sess), "phys")
	for _, src := range files {
		base := filepath.Base(src)
		if err := validatePhysioName(base, sess); err != nil {
			return services.Wrap(services.ErrValidation, "phys", "validate filename", err.Error(), nil)
		}
		stem := physio.BIDSStem(base, sess.Subject, sess.Name, sess.Task)
		acqOut := filepath.Join(outDir, stem+".acq")
		if fileutil.Exists(acqOut) {
			continue
		}

		rec, err := physio.Decode(src)
		if err != nil {
			var decodeErr *physio.DecodeError
			if errors.As(err, &decodeErr) {
				logger.Warn("skipping undecodable recording",
					slog.String("path", src),
					slog.String("reason", decodeErr.Reason))
				continue
			}
			return err
		}

		if err := fileutil.EnsureDir(outDir); err != nil {
			return err
		}
		if err := physio.WriteSignalTSV(rec, filepath.Join(outDir, stem+".txt")); err != nil {
			return err
		}
		if err := fileutil.CopyFileVerified(src, acqOut); err != nil {
			return fmt.Errorf("copy recording: %w", err)
		}
	}
	return nil
}

// validatePhysioName checks a recording filename against the session.
// Expected shape: <subid>_physio_<day>_<runN|rest>.acq
func validatePhysioName(base string, sess Session) error {
	fields := strings.Split(strings.TrimSuffix(base, ".acq"), "_")
	if len(fields) != 4 {
		return fmt.Errorf("recording %q: expected 4 underscore fields, got %d", base, len(fields))
	}
	if fields[0] != sess.SubID {
		return fmt.Errorf("recording %q does not belong to subject %s", base, sess.SubID)
	}
	if fields[2] != sess.Day {
		return fmt.Errorf("recording %q does not belong to session %s", base, sess.Name)
	}
	return nil
}
