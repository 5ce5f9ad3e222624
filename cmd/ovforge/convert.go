package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovforge/ovforge/internal/config"
	"github.com/ovforge/ovforge/internal/convert"
	"github.com/ovforge/ovforge/internal/exporter"
	"github.com/ovforge/ovforge/internal/hub"
	"github.com/ovforge/ovforge/internal/models"
	"github.com/ovforge/ovforge/internal/storage"
	"github.com/ovforge/ovforge/internal/ui"
	"github.com/ovforge/ovforge/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [model]",
	Short: "Convert a model to OpenVINO IR",
	Long: `Converts a HuggingFace checkpoint to OpenVINO IR in the foreground.

The model argument is either a hub id (org/model-name) or a path to a local
checkpoint directory. Hub models are downloaded into the cache first.

Weight compression and full quantization are controlled with --weight-format
and --quant-mode. Calibration-based options (--quant-mode, int4 with
--dataset) require a calibration dataset.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var (
	convertOutputName string
	convertLocalOnly  bool
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertOutputName, "output", "o", "", "output model name (default: derived from the model id)")
	convertCmd.Flags().BoolVar(&convertLocalOnly, "local-only", false, "fail instead of downloading when the model is not cached")
	addConversionFlags(convertCmd)
}

// addConversionFlags registers the flags shared by foreground conversion and
// daemon job submission.
func addConversionFlags(cmd *cobra.Command) {
	cmd.Flags().String("library", "", "model library (transformers, diffusers, timm, sentence_transformers, open_clip)")
	cmd.Flags().String("framework", "", "source framework (pt, tf)")
	cmd.Flags().String("task", "", "export task (default: inferred from the model)")
	cmd.Flags().String("variant", "", "weight variant to load")
	cmd.Flags().String("cache-dir", "", "HuggingFace cache directory for the export backend")
	cmd.Flags().String("device", "", "target device (CPU, GPU, NPU)")
	cmd.Flags().StringSlice("component", nil, "expected component model, repeatable")
	cmd.Flags().Bool("trust-remote-code", false, "allow custom modeling code from the checkpoint")
	cmd.Flags().Bool("disable-stateful", false, "export a stateless model")
	cmd.Flags().Bool("disable-convert-tokenizer", false, "skip OpenVINO tokenizer conversion")

	cmd.Flags().String("weight-format", "", "weight compression format (fp32, fp16, int8, int4, mxfp4, nf4)")
	cmd.Flags().String("quant-mode", "", "full quantization mode (int8, f8e4m3, f8e5m2, nf4_f8e4m3, nf4_f8e5m2, int4_f8e4m3, int4_f8e5m2)")
	cmd.Flags().Float64("ratio", 0, "fraction of layers compressed to the lower precision")
	cmd.Flags().Int("group-size", 0, "quantization group size (-1 for per-column)")
	cmd.Flags().Bool("sym", false, "use symmetric quantization")
	cmd.Flags().Bool("all-layers", false, "compress the embedding and head layers too")
	cmd.Flags().String("dataset", "", "calibration dataset name")
	cmd.Flags().Int("num-samples", 0, "number of calibration samples")
	cmd.Flags().Bool("awq", false, "apply AWQ during compression")
	cmd.Flags().Bool("scale-estimation", false, "apply scale estimation during compression")
	cmd.Flags().Bool("gptq", false, "apply GPTQ during compression")
	cmd.Flags().Bool("lora-correction", false, "apply LoRA correction during compression")
	cmd.Flags().String("sensitivity-metric", "", "layer sensitivity metric for mixed precision")
	cmd.Flags().Float64("smooth-quant-alpha", 0, "SmoothQuant alpha for full quantization")
	cmd.Flags().String("backup-precision", "", "backup precision for non-quantizable layers (none, int8_sym, int8_asym)")
}

// passConfigFromFlags translates the conversion flags into a PassConfig.
// Pointer options are only set when the flag was given on the command line,
// so the export library keeps control of its own defaults.
func passConfigFromFlags(cmd *cobra.Command) *convert.PassConfig {
	flags := cmd.Flags()
	cfg := &convert.PassConfig{}

	extra := &convert.ExtraArgs{}
	extra.Library, _ = flags.GetString("library")
	extra.Framework, _ = flags.GetString("framework")
	extra.Task, _ = flags.GetString("task")
	extra.Variant, _ = flags.GetString("variant")
	extra.CacheDir, _ = flags.GetString("cache-dir")
	extra.DisableStateful, _ = flags.GetBool("disable-stateful")
	extra.DisableConvertTokenizer, _ = flags.GetBool("disable-convert-tokenizer")
	if flags.Changed("trust-remote-code") {
		v, _ := flags.GetBool("trust-remote-code")
		extra.TrustRemoteCode = &v
	}
	cfg.ExtraArgs = extra

	if device, _ := flags.GetString("device"); device != "" {
		cfg.Device = types.Device(device)
	}
	cfg.Components, _ = flags.GetStringSlice("component")

	quant := &convert.QuantOptions{}
	quantSet := false
	quant.WeightFormat, _ = flags.GetString("weight-format")
	quant.QuantMode, _ = flags.GetString("quant-mode")
	quant.Dataset, _ = flags.GetString("dataset")
	quant.SensitivityMetric, _ = flags.GetString("sensitivity-metric")
	quant.BackupPrecision, _ = flags.GetString("backup-precision")
	quantSet = quant.WeightFormat != "" || quant.QuantMode != "" || quant.Dataset != "" ||
		quant.SensitivityMetric != "" || quant.BackupPrecision != ""

	if flags.Changed("ratio") {
		v, _ := flags.GetFloat64("ratio")
		quant.Ratio = &v
		quantSet = true
	}
	if flags.Changed("group-size") {
		v, _ := flags.GetInt("group-size")
		quant.GroupSize = &v
		quantSet = true
	}
	if flags.Changed("num-samples") {
		v, _ := flags.GetInt("num-samples")
		quant.NumSamples = &v
		quantSet = true
	}
	if flags.Changed("smooth-quant-alpha") {
		v, _ := flags.GetFloat64("smooth-quant-alpha")
		quant.SmoothQuantAlpha = &v
		quantSet = true
	}
	boolOpts := []struct {
		flag string
		dst  **bool
	}{
		{"sym", &quant.Sym},
		{"all-layers", &quant.AllLayers},
		{"awq", &quant.AWQ},
		{"scale-estimation", &quant.ScaleEstimation},
		{"gptq", &quant.GPTQ},
		{"lora-correction", &quant.LoraCorrection},
	}
	for _, opt := range boolOpts {
		if flags.Changed(opt.flag) {
			v, _ := flags.GetBool(opt.flag)
			*opt.dst = &v
			quantSet = true
		}
	}
	if extra.TrustRemoteCode != nil {
		quant.TrustRemoteCode = *extra.TrustRemoteCode
	}

	if quantSet {
		cfg.Quant = quant
	}

	return cfg
}

// defaultOutputName derives an output directory name from a model id.
func defaultOutputName(model string) string {
	return strings.ReplaceAll(model, "/", "_")
}

func runConvert(cmd *cobra.Command, args []string) error {
	model := args[0]

	passCfg := passConfigFromFlags(cmd)
	if !convert.Validate(passCfg) {
		return fmt.Errorf("invalid conversion config")
	}

	paths, err := storage.NewPaths()
	if err != nil {
		return fmt.Errorf("failed to initialize paths: %w", err)
	}
	if err := paths.Initialize(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	// Resolve the checkpoint: local directory, cached snapshot, or hub
	// download.
	localPath := model
	if !hub.IsLocalCheckpoint(model) {
		if convertLocalOnly {
			return fmt.Errorf("model %s is not cached and --local-only was given", model)
		}
		fmt.Printf("Fetching %s from the hub...\n", model)
		localPath, err = hub.Snapshot(cmd.Context(), model, paths.CacheDir(), hub.CloneOptions{
			Depth:    1,
			Progress: os.Stderr,
		})
		if err != nil {
			return fmt.Errorf("failed to fetch model: %w", err)
		}
	}

	outputName := convertOutputName
	if outputName == "" {
		outputName = defaultOutputName(model)
	}
	outputPath := paths.OutputPath(outputName)

	cfg := config.Get()
	exp := exporter.New(exporter.Options{
		Binary:          cfg.Export.Binary,
		TokenizerBinary: cfg.Export.TokenizerBinary,
		Env:             cfg.Export.Env,
	})

	ctx := cmd.Context()
	if cfg.Export.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Export.Timeout)*time.Second)
		defer cancel()
	}

	fmt.Printf("Converting %s -> %s\n", model, outputPath)
	start := time.Now()

	handler, err := convert.Run(ctx, exp, types.ModelReference{NameOrPath: localPath}, passCfg, outputPath)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	fmt.Printf("Conversion finished in %s\n", ui.FormatDuration(time.Since(start)))
	if components := handler.ComponentNames(); len(components) > 0 {
		fmt.Printf("Components: %s\n", strings.Join(components, ", "))
	}

	// Record the result so list/inspect can see it
	registry, err := models.NewRegistry(paths)
	if err != nil {
		fmt.Printf("Warning: failed to open model registry: %v\n", err)
		return nil
	}
	manifest, err := registry.RecordConversion(outputName, model, handler)
	if err != nil {
		fmt.Printf("Warning: failed to record conversion: %v\n", err)
		return nil
	}

	fmt.Printf("Output: %s (%s)\n", outputPath, ui.FormatBytes(manifest.TotalSize))
	return nil
}
