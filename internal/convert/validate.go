package convert

import (
	"log"
	"strings"
)

// Allowed value sets for the enum-like configuration fields. An unset field
// is always valid.
var (
	allowedLibraries        = []string{"transformers", "diffusers", "timm", "sentence_transformers", "open_clip"}
	allowedFrameworks       = []string{"pt", "tf"}
	allowedWeightFormats    = []string{"fp32", "fp16", "int8", "int4", "mxfp4", "nf4"}
	allowedQuantModes       = []string{"int8", "f8e4m3", "f8e5m2", "nf4_f8e4m3", "nf4_f8e5m2", "int4_f8e4m3", "int4_f8e5m2"}
	allowedBackupPrecisions = []string{"none", "int8_sym", "int8_asym"}
)

// Validate checks every provided enum-like value against its allow-list.
// It returns false and logs the reason on the first disallowed value. It has
// no side effects beyond logging; the caller decides whether to abort.
func Validate(cfg *PassConfig) bool {
	if cfg == nil {
		return true
	}

	if cfg.ExtraArgs != nil {
		if lib := cfg.ExtraArgs.Library; lib != "" && !contains(allowedLibraries, lib) {
			log.Printf("library %s is not supported. Supported libraries are %s.",
				lib, strings.Join(allowedLibraries, ", "))
			return false
		}
		if fw := cfg.ExtraArgs.Framework; fw != "" && !contains(allowedFrameworks, fw) {
			log.Printf("framework %s is not supported. Supported frameworks are %s.",
				fw, strings.Join(allowedFrameworks, ", "))
			return false
		}
	}

	if cfg.Quant != nil {
		if wf := cfg.Quant.WeightFormat; wf != "" && !contains(allowedWeightFormats, wf) {
			log.Printf("weight format %s is not supported. Supported weight formats are %s.",
				wf, strings.Join(allowedWeightFormats, ", "))
			return false
		}
		if qm := cfg.Quant.QuantMode; qm != "" && !contains(allowedQuantModes, qm) {
			log.Printf("quant mode %s is not supported. Supported quant modes are %s.",
				qm, strings.Join(allowedQuantModes, ", "))
			return false
		}
		if bp := cfg.Quant.BackupPrecision; bp != "" && !contains(allowedBackupPrecisions, bp) {
			log.Printf("backup precision %s is not supported. Supported backup precisions are %s.",
				bp, strings.Join(allowedBackupPrecisions, ", "))
			return false
		}
	}

	return true
}

func contains(values []string, v string) bool {
	for _, val := range values {
		if val == v {
			return true
		}
	}
	return false
}
