package convert

import (
	"context"

	"github.com/ovforge/ovforge/pkg/types"
)

// Pipeline classes recognized for quantized diffusion export, keyed by the
// _class_name of the source pipeline.
var diffusionPipelineClasses = map[string]string{
	"LatentConsistencyModelPipeline": "OVLatentConsistencyModelPipeline",
	"StableDiffusionXLPipeline":      "OVStableDiffusionXLPipeline",
	"StableDiffusionPipeline":        "OVStableDiffusionPipeline",
	"StableDiffusion3Pipeline":       "OVStableDiffusion3Pipeline",
	"FluxPipeline":                   "OVFluxPipeline",
	"SanaPipeline":                   "OVSanaPipeline",
}

// Model classes for calibration-based export by task category.
const (
	ModelClassCausalLM       = "OVModelForCausalLM"
	ModelClassVisualCausalLM = "OVModelForVisualCausalLM"
	ModelClassSpeechSeq2Seq  = "OVModelForSpeechSeq2Seq"
)

// Exporter is the export backend. All graph tracing, operator lowering and
// quantization math happens behind this interface; the pass only decides
// which entry point to call and with what configuration. Every call blocks
// until the backend finishes.
type Exporter interface {
	// Export runs the generic batch export entry point, which handles
	// artifact and tokenizer emission itself.
	Export(ctx context.Context, req ExportRequest) error

	// ExportPipeline instantiates a diffusion pipeline class with
	// export-and-quantize-in-one-step semantics and persists it.
	ExportPipeline(ctx context.Context, req PipelineExportRequest) error

	// ExportForTask instantiates a task-specific model class with
	// export+quantize+stateful flags and persists it.
	ExportForTask(ctx context.Context, req TaskExportRequest) error

	// SavePreprocessors loads tokenizer/feature-extractor artifacts from the
	// source checkpoint and saves them next to the exported model.
	SavePreprocessors(ctx context.Context, modelNameOrPath, outputPath string, trustRemoteCode bool) error

	// ConvertTokenizer converts the tokenizer to the runtime's native
	// tokenizer format.
	ConvertTokenizer(ctx context.Context, modelNameOrPath, outputPath, task string) error
}

// ExportRequest drives the generic batch export path.
type ExportRequest struct {
	ModelNameOrPath  string
	OutputPath       string
	Task             string
	Library          string
	Framework        string
	Device           types.Device
	Variant          string
	CacheDir         string
	TrustRemoteCode  bool
	Stateful         bool
	ConvertTokenizer bool
	OVConfig         *OVConfig
}

// PipelineExportRequest drives quantized export of a diffusion pipeline.
type PipelineExportRequest struct {
	ModelNameOrPath string
	OutputPath      string
	PipelineClass   string
	Task            string
	TrustRemoteCode bool
	Quantization    *QuantizationSpec
}

// TaskExportRequest drives quantized export through a task-specific model
// class.
type TaskExportRequest struct {
	ModelNameOrPath string
	OutputPath      string
	ModelClass      string
	Task            string
	Stateful        bool
	TrustRemoteCode bool
	Variant         string
	CacheDir        string
	Quantization    *QuantizationSpec
}
