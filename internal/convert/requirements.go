package convert

import (
	"bidsbuild/internal/config"
	"bidsbuild/internal/deps"
)

// Requirements lists the external binaries the pipeline shells out to,
// built from the configured tool paths. The defacer not selected by
// [convert].defacer is optional.
func Requirements(cfg *config.Config) []deps.Requirement {
	pydefaceOptional := cfg.Convert.Defacer != config.DefacerPydeface
	return []deps.Requirement{
		{
			Name:        "dcm2niix",
			Command:     cfg.Convert.Dcm2niixBin,
			Description: "DICOM to NIfTI conversion",
		},
		{
			Name:        "org_dcms",
			Command:     cfg.Convert.OrgDcmsBin,
			Description: "DICOM sorting script",
		},
		{
			Name:        "afni_refacer",
			Command:     cfg.Convert.RefacerBin,
			Description: "AFNI defacing workflow",
			Optional:    !pydefaceOptional,
		},
		{
			Name:        "pydeface",
			Command:     cfg.Convert.PydefaceBin,
			Description: "pydeface defacing workflow",
			Optional:    pydefaceOptional,
		},
	}
}
