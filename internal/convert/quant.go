package convert

import (
	"fmt"
	"strings"
)

// OVConfig is the quantization directive handed to the export backend.
// Exactly one of Dtype (precision cast only) or Quantization is set; a nil
// OVConfig means plain export.
type OVConfig struct {
	Dtype        string            `json:"dtype,omitempty"`
	Quantization *QuantizationSpec `json:"quantization_config,omitempty"`
}

// QuantizationSpec carries weight-only, full, or mixed weight+activation
// quantization settings. For the mixed case both Weights and Full are set
// and the calibration fields at this level apply to the combined run.
type QuantizationSpec struct {
	Weights         *WeightCompressionConfig `json:"weight_quantization_config,omitempty"`
	Full            *FullQuantConfig         `json:"full_quantization_config,omitempty"`
	Dataset         string                   `json:"dataset,omitempty"`
	NumSamples      *int                     `json:"num_samples,omitempty"`
	TrustRemoteCode bool                     `json:"trust_remote_code,omitempty"`
}

// HasDataset reports whether any part of the spec references a calibration
// dataset. Calibration-based quantization changes which export strategy the
// router picks.
func (s *QuantizationSpec) HasDataset() bool {
	if s == nil {
		return false
	}
	if s.Dataset != "" {
		return true
	}
	if s.Weights != nil && s.Weights.Dataset != "" {
		return true
	}
	if s.Full != nil && s.Full.Dataset != "" {
		return true
	}
	return false
}

// WeightCompressionConfig configures weight-only compression. GroupSize and
// AllLayers stay nil when the backend default should apply.
type WeightCompressionConfig struct {
	Bits              int      `json:"bits"`
	Ratio             float64  `json:"ratio"`
	Sym               bool     `json:"sym"`
	GroupSize         *int     `json:"group_size,omitempty"`
	AllLayers         *bool    `json:"all_layers,omitempty"`
	Dataset           string   `json:"dataset,omitempty"`
	NumSamples        *int     `json:"num_samples,omitempty"`
	QuantMethod       string   `json:"quant_method"`
	SensitivityMetric string   `json:"sensitivity_metric,omitempty"`
	ScaleEstimation   *bool    `json:"scale_estimation,omitempty"`
	GPTQ              *bool    `json:"gptq,omitempty"`
	LoraCorrection    *bool    `json:"lora_correction,omitempty"`
	Dtype             string   `json:"dtype"`
	BackupPrecision   string   `json:"backup_precision,omitempty"`
	TrustRemoteCode   bool     `json:"trust_remote_code,omitempty"`
}

// FullQuantConfig configures full (activation) quantization.
type FullQuantConfig struct {
	Dtype            string   `json:"dtype"`
	Bits             int      `json:"bits"`
	Sym              bool     `json:"sym"`
	Dataset          string   `json:"dataset,omitempty"`
	NumSamples       *int     `json:"num_samples,omitempty"`
	SmoothQuantAlpha *float64 `json:"smooth_quant_alpha,omitempty"`
	TrustRemoteCode  bool     `json:"trust_remote_code,omitempty"`
}

// mixedQuantModes are the quant modes combining a low-bit weight format with
// a float8 activation format.
var mixedQuantModes = map[string]bool{
	"nf4_f8e4m3":  true,
	"nf4_f8e5m2":  true,
	"int4_f8e4m3": true,
	"int4_f8e5m2": true,
}

const (
	defaultFourBitRatio     = 1.0
	defaultFourBitGroupSize = 128
)

// buildQuantDirective turns the quantization options into the directive for
// the export backend. It selects among five mutually exclusive paths: no
// quantization, precision cast, weight-only compression, full quantization,
// and mixed weight+activation quantization.
func buildQuantDirective(modelNameOrPath, library string, q *QuantOptions) (*OVConfig, error) {
	if q == nil {
		return nil, nil
	}

	hasWeightFormat := q.WeightFormat != ""
	hasQuantMode := q.QuantMode != ""

	switch {
	case !hasWeightFormat && !hasQuantMode:
		// Shaping parameters without a selector are ambiguous intent.
		if !noCompressionParameterProvided(q) {
			return nil, ErrMissingWeightFormat
		}
		if !noQuantizationParameterProvided(q) {
			return nil, ErrMissingQuantMode
		}
		return nil, nil

	case q.WeightFormat == "fp16" || q.WeightFormat == "fp32":
		// Cast only, no calibration data needed.
		return &OVConfig{Dtype: q.WeightFormat}, nil

	case hasWeightFormat:
		var wc WeightCompressionConfig
		if noCompressionParameterProvided(q) && q.WeightFormat == "int4" {
			wc = defaultInt4Config(modelNameOrPath)
		} else {
			wc = prepWeightCompression(q)
		}
		if wc.Dataset != "" {
			wc.TrustRemoteCode = q.TrustRemoteCode
		}
		return &OVConfig{Quantization: &QuantizationSpec{Weights: &wc}}, nil

	default:
		if mixedQuantModes[q.QuantMode] {
			if library == "diffusers" {
				return nil, fmt.Errorf("%w: mixed precision quantization is not supported for diffusers", ErrNotImplemented)
			}
			if q.Dataset == "" {
				return nil, ErrDatasetRequired
			}
			wc := prepWeightCompression(q)
			fq := prepFullQuant(q)
			wc.Dtype, fq.Dtype, _ = strings.Cut(q.QuantMode, "_")
			return &OVConfig{Quantization: &QuantizationSpec{
				Weights:         &wc,
				Full:            &fq,
				Dataset:         q.Dataset,
				NumSamples:      q.NumSamples,
				TrustRemoteCode: q.TrustRemoteCode,
			}}, nil
		}
		if q.Dataset == "" {
			return nil, ErrDatasetRequired
		}
		fq := prepFullQuant(q)
		return &OVConfig{Quantization: &QuantizationSpec{Full: &fq}}, nil
	}
}

// prepWeightCompression builds a weight-compression config from the options.
// int8 is always symmetric full-ratio per-channel: bits=8, ratio=1.0 and
// group_size=-1 regardless of what else was supplied.
func prepWeightCompression(q *QuantOptions) WeightCompressionConfig {
	isInt8 := q.WeightFormat == "int8"

	wc := WeightCompressionConfig{
		Dtype:             q.WeightFormat,
		Dataset:           q.Dataset,
		NumSamples:        q.NumSamples,
		SensitivityMetric: q.SensitivityMetric,
		ScaleEstimation:   q.ScaleEstimation,
		GPTQ:              q.GPTQ,
		LoraCorrection:    q.LoraCorrection,
		BackupPrecision:   q.BackupPrecision,
		QuantMethod:       "default",
	}
	if q.AWQ != nil && *q.AWQ {
		wc.QuantMethod = "awq"
	}
	if q.Sym != nil {
		wc.Sym = *q.Sym
	}

	if isInt8 {
		wc.Bits = 8
		wc.Ratio = 1.0
		groupSize := -1
		wc.GroupSize = &groupSize
		wc.AllLayers = nil
		return wc
	}

	wc.Bits = 4
	wc.Ratio = defaultFourBitRatio
	if q.Ratio != nil {
		wc.Ratio = *q.Ratio
	}
	wc.GroupSize = q.GroupSize
	allLayers := q.AllLayers != nil && *q.AllLayers
	wc.AllLayers = &allLayers
	return wc
}

// prepFullQuant builds a full-quantization config from the options.
func prepFullQuant(q *QuantOptions) FullQuantConfig {
	fq := FullQuantConfig{
		Dtype:            q.QuantMode,
		Bits:             8,
		Dataset:          q.Dataset,
		NumSamples:       q.NumSamples,
		SmoothQuantAlpha: q.SmoothQuantAlpha,
		TrustRemoteCode:  q.TrustRemoteCode,
	}
	if q.Sym != nil {
		fq.Sym = *q.Sym
	}
	return fq
}

// noCompressionParameterProvided reports whether none of the
// compression-shaping parameters were supplied.
func noCompressionParameterProvided(q *QuantOptions) bool {
	return q.Ratio == nil &&
		q.GroupSize == nil &&
		q.Sym == nil &&
		q.AllLayers == nil &&
		q.Dataset == "" &&
		q.NumSamples == nil &&
		q.AWQ == nil &&
		q.ScaleEstimation == nil &&
		q.GPTQ == nil &&
		q.LoraCorrection == nil &&
		q.SensitivityMetric == "" &&
		q.BackupPrecision == ""
}

// noQuantizationParameterProvided reports whether none of the
// quantization-shaping parameters were supplied.
func noQuantizationParameterProvided(q *QuantOptions) bool {
	return q.Sym == nil &&
		q.Dataset == "" &&
		q.NumSamples == nil &&
		q.SmoothQuantAlpha == nil
}
