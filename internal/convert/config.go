package convert

import (
	"github.com/ovforge/ovforge/pkg/types"
)

// PassConfig is the configuration bag for one conversion. Zero values and
// nil pointers mean "unset"; unset options are always valid and fall back to
// the export library defaults.
type PassConfig struct {
	// Components lists the component models expected from the export, e.g.
	// ["decoder_model", "decoder_with_past_model"]. Empty means export all
	// components and accept whatever is produced.
	Components []string `json:"components,omitempty"`

	// Device is passed through to the export backend. Defaults to CPU.
	Device types.Device `json:"device,omitempty"`

	// ExtraArgs are forwarded to the export entry point.
	ExtraArgs *ExtraArgs `json:"extra_args,omitempty"`

	// Quant configures OpenVINO post-training quantization. Nil means plain
	// export, no quantization.
	Quant *QuantOptions `json:"ov_quant_config,omitempty"`
}

// ExtraArgs mirror the optional arguments of the export entry point.
type ExtraArgs struct {
	Library                 string `json:"library,omitempty"`
	Framework               string `json:"framework,omitempty"`
	Task                    string `json:"task,omitempty"`
	Variant                 string `json:"variant,omitempty"`
	CacheDir                string `json:"cache_dir,omitempty"`
	TrustRemoteCode         *bool  `json:"trust_remote_code,omitempty"`
	DisableStateful         bool   `json:"disable_stateful,omitempty"`
	DisableConvertTokenizer bool   `json:"disable_convert_tokenizer,omitempty"`
}

// QuantOptions shape the quantization applied during export. WeightFormat
// selects weight-only compression (or a plain precision cast for fp16/fp32),
// QuantMode selects full or mixed-precision quantization. Pointer fields
// distinguish "unset" from an explicit zero.
type QuantOptions struct {
	WeightFormat      string   `json:"weight_format,omitempty"`
	QuantMode         string   `json:"quant_mode,omitempty"`
	Ratio             *float64 `json:"ratio,omitempty"`
	GroupSize         *int     `json:"group_size,omitempty"`
	Sym               *bool    `json:"sym,omitempty"`
	AllLayers         *bool    `json:"all_layers,omitempty"`
	Dataset           string   `json:"dataset,omitempty"`
	NumSamples        *int     `json:"num_samples,omitempty"`
	AWQ               *bool    `json:"awq,omitempty"`
	ScaleEstimation   *bool    `json:"scale_estimation,omitempty"`
	GPTQ              *bool    `json:"gptq,omitempty"`
	LoraCorrection    *bool    `json:"lora_correction,omitempty"`
	SensitivityMetric string   `json:"sensitivity_metric,omitempty"`
	SmoothQuantAlpha  *float64 `json:"smooth_quant_alpha,omitempty"`
	BackupPrecision   string   `json:"backup_precision,omitempty"`
	TrustRemoteCode   bool     `json:"trust_remote_code,omitempty"`
}

// clone returns a copy of the extra args so the pass can fill defaults
// without mutating the caller's config.
func (e *ExtraArgs) clone() *ExtraArgs {
	if e == nil {
		return &ExtraArgs{}
	}
	out := *e
	return &out
}

// device returns the configured device, defaulting to CPU.
func (c *PassConfig) device() types.Device {
	if c.Device == "" {
		return types.DeviceCPU
	}
	return c.Device
}
