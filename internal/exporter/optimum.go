// Package exporter runs the export backend that does the actual graph
// conversion and quantization work. The default implementation shells out to
// an optimum-cli compatible exporter; everything here blocks until the
// backend process exits.
package exporter

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"

	"github.com/ovforge/ovforge/internal/convert"
)

const (
	// DefaultBinary is the exporter entry point, resolved via PATH.
	DefaultBinary = "optimum-cli"

	// DefaultTokenizerBinary converts tokenizers to the OpenVINO tokenizer
	// format.
	DefaultTokenizerBinary = "convert_tokenizer"
)

// Options configure the subprocess backend.
type Options struct {
	Binary          string
	TokenizerBinary string
	Env             []string
	Stdout          io.Writer
	Stderr          io.Writer
}

// OptimumCLI implements convert.Exporter by invoking the exporter binary.
type OptimumCLI struct {
	binary          string
	tokenizerBinary string
	env             []string
	stdout          io.Writer
	stderr          io.Writer
}

// New creates a subprocess backend with defaults filled in.
func New(opts Options) *OptimumCLI {
	e := &OptimumCLI{
		binary:          opts.Binary,
		tokenizerBinary: opts.TokenizerBinary,
		env:             opts.Env,
		stdout:          opts.Stdout,
		stderr:          opts.Stderr,
	}
	if e.binary == "" {
		e.binary = DefaultBinary
	}
	if e.tokenizerBinary == "" {
		e.tokenizerBinary = DefaultTokenizerBinary
	}
	if e.stdout == nil {
		e.stdout = os.Stdout
	}
	if e.stderr == nil {
		e.stderr = os.Stderr
	}
	return e
}

// Export runs the generic batch export entry point.
func (e *OptimumCLI) Export(ctx context.Context, req convert.ExportRequest) error {
	args := []string{"export", "openvino", "--model", req.ModelNameOrPath}
	args = appendCommonArgs(args, req.Task, req.Library, req.TrustRemoteCode)
	if req.Framework != "" {
		args = append(args, "--framework", req.Framework)
	}
	if req.Device != "" {
		args = append(args, "--device", string(req.Device))
	}
	if req.Variant != "" {
		args = append(args, "--variant", req.Variant)
	}
	if req.CacheDir != "" {
		args = append(args, "--cache_dir", req.CacheDir)
	}
	if !req.Stateful {
		args = append(args, "--disable-stateful")
	}
	if !req.ConvertTokenizer {
		args = append(args, "--disable-convert-tokenizer")
	}
	args = appendQuantArgs(args, req.OVConfig)
	args = append(args, req.OutputPath)

	return e.run(ctx, e.binary, args)
}

// ExportPipeline exports a diffusion pipeline through its resolved class.
func (e *OptimumCLI) ExportPipeline(ctx context.Context, req convert.PipelineExportRequest) error {
	args := []string{"export", "openvino", "--model", req.ModelNameOrPath,
		"--model-class", req.PipelineClass}
	args = appendCommonArgs(args, req.Task, "diffusers", req.TrustRemoteCode)
	args = appendQuantArgs(args, &convert.OVConfig{Quantization: req.Quantization})
	args = append(args, req.OutputPath)

	return e.run(ctx, e.binary, args)
}

// ExportForTask exports through a task-specific model class so calibration
// quantization can run against an instantiated model.
func (e *OptimumCLI) ExportForTask(ctx context.Context, req convert.TaskExportRequest) error {
	args := []string{"export", "openvino", "--model", req.ModelNameOrPath,
		"--model-class", req.ModelClass}
	args = appendCommonArgs(args, req.Task, "", req.TrustRemoteCode)
	if req.Variant != "" {
		args = append(args, "--variant", req.Variant)
	}
	if req.CacheDir != "" {
		args = append(args, "--cache_dir", req.CacheDir)
	}
	if !req.Stateful {
		args = append(args, "--disable-stateful")
	}
	args = appendQuantArgs(args, &convert.OVConfig{Quantization: req.Quantization})
	args = append(args, req.OutputPath)

	return e.run(ctx, e.binary, args)
}

// SavePreprocessors copies tokenizer and feature-extractor artifacts from a
// local checkpoint next to the exported model. Hub models are left to the
// backend, which caches preprocessors during export.
func (e *OptimumCLI) SavePreprocessors(_ context.Context, modelNameOrPath, outputPath string, _ bool) error {
	info, err := os.Stat(modelNameOrPath)
	if err != nil || !info.IsDir() {
		log.Printf("model %s is not a local checkpoint, preprocessors were saved by the export backend", modelNameOrPath)
		return nil
	}
	return copyPreprocessorFiles(modelNameOrPath, outputPath)
}

// ConvertTokenizer converts the model tokenizer to the OpenVINO tokenizer
// format.
func (e *OptimumCLI) ConvertTokenizer(ctx context.Context, modelNameOrPath, outputPath, _ string) error {
	args := []string{modelNameOrPath, "-o", outputPath, "--with-detokenizer"}
	return e.run(ctx, e.tokenizerBinary, args)
}

func (e *OptimumCLI) run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	if len(e.env) > 0 {
		cmd.Env = append(os.Environ(), e.env...)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", binary, args, err)
	}
	return nil
}

func appendCommonArgs(args []string, task, library string, trustRemoteCode bool) []string {
	if task != "" {
		args = append(args, "--task", task)
	}
	if library != "" {
		args = append(args, "--library", library)
	}
	if trustRemoteCode {
		args = append(args, "--trust-remote-code")
	}
	return args
}

// appendQuantArgs flattens the quantization directive into exporter flags.
func appendQuantArgs(args []string, cfg *convert.OVConfig) []string {
	if cfg == nil {
		return args
	}
	if cfg.Dtype != "" {
		return append(args, "--weight-format", cfg.Dtype)
	}
	spec := cfg.Quantization
	if spec == nil {
		return args
	}

	if wc := spec.Weights; wc != nil {
		if spec.Full == nil {
			args = append(args, "--weight-format", wc.Dtype)
		}
		args = append(args, "--ratio", strconv.FormatFloat(wc.Ratio, 'f', -1, 64))
		if wc.GroupSize != nil {
			args = append(args, "--group-size", strconv.Itoa(*wc.GroupSize))
		}
		if wc.Sym {
			args = append(args, "--sym")
		}
		if wc.AllLayers != nil && *wc.AllLayers {
			args = append(args, "--all-layers")
		}
		if wc.QuantMethod == "awq" {
			args = append(args, "--awq")
		}
		if wc.ScaleEstimation != nil && *wc.ScaleEstimation {
			args = append(args, "--scale-estimation")
		}
		if wc.GPTQ != nil && *wc.GPTQ {
			args = append(args, "--gptq")
		}
		if wc.LoraCorrection != nil && *wc.LoraCorrection {
			args = append(args, "--lora-correction")
		}
		if wc.SensitivityMetric != "" {
			args = append(args, "--sensitivity-metric", wc.SensitivityMetric)
		}
		if wc.BackupPrecision != "" {
			args = append(args, "--backup-precisions", wc.BackupPrecision)
		}
		if spec.Full == nil && wc.Dataset != "" {
			args = append(args, "--dataset", wc.Dataset)
		}
		if spec.Full == nil && wc.NumSamples != nil {
			args = append(args, "--num-samples", strconv.Itoa(*wc.NumSamples))
		}
	}

	if fq := spec.Full; fq != nil {
		if spec.Weights != nil {
			// Mixed weight+activation run: recombine the split mode.
			args = append(args, "--quant-mode", spec.Weights.Dtype+"_"+fq.Dtype)
		} else {
			args = append(args, "--quant-mode", fq.Dtype)
		}
		dataset := fq.Dataset
		if dataset == "" {
			dataset = spec.Dataset
		}
		if dataset != "" {
			args = append(args, "--dataset", dataset)
		}
		numSamples := fq.NumSamples
		if numSamples == nil {
			numSamples = spec.NumSamples
		}
		if numSamples != nil {
			args = append(args, "--num-samples", strconv.Itoa(*numSamples))
		}
		if fq.Sym && spec.Weights == nil {
			args = append(args, "--sym")
		}
		if fq.SmoothQuantAlpha != nil {
			args = append(args, "--smooth-quant-alpha", strconv.FormatFloat(*fq.SmoothQuantAlpha, 'f', -1, 64))
		}
	}

	return args
}
