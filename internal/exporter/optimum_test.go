package exporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovforge/ovforge/internal/convert"
	"github.com/ovforge/ovforge/pkg/types"
)

func intPtr(v int) *int { return &v }

func TestNewDefaults(t *testing.T) {
	e := New(Options{})
	assert.Equal(t, DefaultBinary, e.binary)
	assert.Equal(t, DefaultTokenizerBinary, e.tokenizerBinary)
}

func TestAppendQuantArgs(t *testing.T) {
	groupSize := 128
	tests := []struct {
		name     string
		cfg      *convert.OVConfig
		expected []string
	}{
		{
			name:     "nil config",
			cfg:      nil,
			expected: nil,
		},
		{
			name:     "cast only",
			cfg:      &convert.OVConfig{Dtype: "fp16"},
			expected: []string{"--weight-format", "fp16"},
		},
		{
			name: "weight compression",
			cfg: &convert.OVConfig{Quantization: &convert.QuantizationSpec{
				Weights: &convert.WeightCompressionConfig{
					Bits: 4, Ratio: 0.8, Sym: true, GroupSize: &groupSize,
					QuantMethod: "awq", Dtype: "int4", Dataset: "wikitext2",
				},
			}},
			expected: []string{
				"--weight-format", "int4",
				"--ratio", "0.8",
				"--group-size", "128",
				"--sym",
				"--awq",
				"--dataset", "wikitext2",
			},
		},
		{
			name: "full quantization",
			cfg: &convert.OVConfig{Quantization: &convert.QuantizationSpec{
				Full: &convert.FullQuantConfig{
					Dtype: "f8e4m3", Bits: 8, Dataset: "librispeech", NumSamples: intPtr(64),
				},
			}},
			expected: []string{
				"--quant-mode", "f8e4m3",
				"--dataset", "librispeech",
				"--num-samples", "64",
			},
		},
		{
			name: "mixed recombines quant mode",
			cfg: &convert.OVConfig{Quantization: &convert.QuantizationSpec{
				Weights: &convert.WeightCompressionConfig{Bits: 4, Ratio: 1, Dtype: "nf4", QuantMethod: "default"},
				Full:    &convert.FullQuantConfig{Dtype: "f8e4m3", Bits: 8},
				Dataset: "wikitext2",
			}},
			expected: []string{
				"--ratio", "1",
				"--quant-mode", "nf4_f8e4m3",
				"--dataset", "wikitext2",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, appendQuantArgs(nil, tt.cfg))
		})
	}
}

func TestExportBuildsCommand(t *testing.T) {
	// Point the backend at /bin/true so the invocation itself is exercised.
	e := New(Options{Binary: "true", TokenizerBinary: "true"})

	err := e.Export(context.Background(), convert.ExportRequest{
		ModelNameOrPath:  "org/model",
		OutputPath:       t.TempDir(),
		Task:             "text-generation",
		Library:          "transformers",
		Device:           types.DeviceCPU,
		Stateful:         true,
		ConvertTokenizer: true,
	})
	assert.NoError(t, err)
}

func TestExportBinaryNotFound(t *testing.T) {
	e := New(Options{Binary: "definitely-not-a-real-binary-9137"})
	err := e.Export(context.Background(), convert.ExportRequest{
		ModelNameOrPath: "org/model",
		OutputPath:      t.TempDir(),
	})
	assert.Error(t, err)
}

func TestSavePreprocessorsCopiesLocalFiles(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "tokenizer.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "tokenizer_config.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "pytorch_model.bin"), []byte("x"), 0o644))

	e := New(Options{})
	require.NoError(t, e.SavePreprocessors(context.Background(), src, out, false))

	assert.FileExists(t, filepath.Join(out, "tokenizer.json"))
	assert.FileExists(t, filepath.Join(out, "tokenizer_config.json"))
	assert.NoFileExists(t, filepath.Join(out, "pytorch_model.bin"))
}

func TestSavePreprocessorsHubModelIsNoop(t *testing.T) {
	e := New(Options{})
	assert.NoError(t, e.SavePreprocessors(context.Background(), "org/model", t.TempDir(), false))
}
