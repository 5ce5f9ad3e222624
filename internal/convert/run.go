package convert

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ovforge/ovforge/pkg/types"
)

// Run executes the conversion pass: it selects the quantization directive,
// routes to one of three export strategies, and packages the exported
// artifacts into a model handler. The call is synchronous and blocks until
// the backend finishes; the caller owns the returned handler.
func Run(ctx context.Context, exp Exporter, model types.ModelReference, cfg *PassConfig, outputPath string) (types.Handler, error) {
	if cfg == nil {
		cfg = &PassConfig{}
	}
	extra := cfg.ExtraArgs.clone()

	trustRemoteCode := false
	if extra.TrustRemoteCode != nil {
		trustRemoteCode = *extra.TrustRemoteCode
	} else if model.LoadKwargs != nil {
		trustRemoteCode = model.LoadKwargs.TrustRemoteCode
	}

	library := resolveLibrary(model, extra)

	directive, err := buildQuantDirective(model.NameOrPath, library, cfg.Quant)
	if err != nil {
		return nil, err
	}
	var quant *QuantizationSpec
	if directive != nil {
		quant = directive.Quantization
	}
	quantizeWithDataset := quant.HasDataset()

	task := InferTask(extra.Task, model.NameOrPath, library)

	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	switch {
	case library == "diffusers" && quantizeWithDataset:
		if err := runDiffusionExport(ctx, exp, model, extra, quant, task, trustRemoteCode, outputPath); err != nil {
			return nil, err
		}

	case (quantizeWithDataset && (strings.HasPrefix(task, "text-generation") || strings.Contains(task, "automatic-speech-recognition"))) ||
		(task == "image-text-to-text" && quant != nil):
		if err := runTaskExport(ctx, exp, model, extra, quant, task, trustRemoteCode, outputPath); err != nil {
			return nil, err
		}

	default:
		req := ExportRequest{
			ModelNameOrPath:  model.NameOrPath,
			OutputPath:       outputPath,
			Task:             task,
			Library:          library,
			Framework:        extra.Framework,
			Device:           cfg.device(),
			Variant:          extra.Variant,
			CacheDir:         extra.CacheDir,
			TrustRemoteCode:  trustRemoteCode,
			Stateful:         !extra.DisableStateful,
			ConvertTokenizer: !extra.DisableConvertTokenizer,
			OVConfig:         directive,
		}
		if err := exp.Export(ctx, req); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}

	return packageArtifacts(outputPath, cfg.Components, model.Attributes)
}

// runDiffusionExport resolves the pipeline class from the checkpoint's own
// configuration and exports it with one-step quantization.
func runDiffusionExport(ctx context.Context, exp Exporter, model types.ModelReference, extra *ExtraArgs, quant *QuantizationSpec, task string, trustRemoteCode bool, outputPath string) error {
	idx, err := ReadDiffusionIndex(model.NameOrPath)
	if err != nil {
		return err
	}
	class, ok := diffusionPipelineClasses[idx.ClassName]
	if !ok {
		return fmt.Errorf("%w: quantization is not supported for pipeline class %s", ErrNotImplemented, idx.ClassName)
	}

	req := PipelineExportRequest{
		ModelNameOrPath: model.NameOrPath,
		OutputPath:      outputPath,
		PipelineClass:   class,
		Task:            task,
		TrustRemoteCode: trustRemoteCode,
		Quantization:    quant,
	}
	if err := exp.ExportPipeline(ctx, req); err != nil {
		return fmt.Errorf("export pipeline: %w", err)
	}

	if !extra.DisableConvertTokenizer {
		if err := exp.ConvertTokenizer(ctx, model.NameOrPath, outputPath, task); err != nil {
			return fmt.Errorf("convert tokenizer: %w", err)
		}
	}
	return nil
}

// runTaskExport exports through the task-specific model class required to
// apply calibration-based quantization, then saves preprocessor artifacts.
func runTaskExport(ctx context.Context, exp Exporter, model types.ModelReference, extra *ExtraArgs, quant *QuantizationSpec, task string, trustRemoteCode bool, outputPath string) error {
	var class string
	switch {
	case strings.HasPrefix(task, "text-generation"):
		class = ModelClassCausalLM
	case task == "image-text-to-text":
		class = ModelClassVisualCausalLM
	default:
		class = ModelClassSpeechSeq2Seq
	}

	req := TaskExportRequest{
		ModelNameOrPath: model.NameOrPath,
		OutputPath:      outputPath,
		ModelClass:      class,
		Task:            task,
		Stateful:        !extra.DisableStateful,
		TrustRemoteCode: trustRemoteCode,
		Variant:         extra.Variant,
		CacheDir:        extra.CacheDir,
		Quantization:    quant,
	}
	if err := exp.ExportForTask(ctx, req); err != nil {
		return fmt.Errorf("export %s: %w", class, err)
	}

	if err := exp.SavePreprocessors(ctx, model.NameOrPath, outputPath, trustRemoteCode); err != nil {
		return fmt.Errorf("save preprocessors: %w", err)
	}
	if !extra.DisableConvertTokenizer {
		if err := exp.ConvertTokenizer(ctx, model.NameOrPath, outputPath, task); err != nil {
			return fmt.Errorf("convert tokenizer: %w", err)
		}
	}
	return nil
}
