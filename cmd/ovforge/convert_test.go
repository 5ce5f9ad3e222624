package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCommand(t *testing.T, args []string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addConversionFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestPassConfigFromFlagsEmpty(t *testing.T) {
	cmd := newFlagCommand(t, nil)
	cfg := passConfigFromFlags(cmd)

	assert.Nil(t, cfg.Quant)
	assert.Empty(t, cfg.Components)
	assert.Empty(t, cfg.Device)
	require.NotNil(t, cfg.ExtraArgs)
	assert.Empty(t, cfg.ExtraArgs.Library)
	assert.Nil(t, cfg.ExtraArgs.TrustRemoteCode)
}

func TestPassConfigFromFlagsWeightCompression(t *testing.T) {
	cmd := newFlagCommand(t, []string{
		"--weight-format", "int4",
		"--ratio", "0.8",
		"--group-size", "64",
		"--sym",
		"--awq",
		"--dataset", "wikitext2",
	})
	cfg := passConfigFromFlags(cmd)

	require.NotNil(t, cfg.Quant)
	assert.Equal(t, "int4", cfg.Quant.WeightFormat)
	require.NotNil(t, cfg.Quant.Ratio)
	assert.Equal(t, 0.8, *cfg.Quant.Ratio)
	require.NotNil(t, cfg.Quant.GroupSize)
	assert.Equal(t, 64, *cfg.Quant.GroupSize)
	require.NotNil(t, cfg.Quant.Sym)
	assert.True(t, *cfg.Quant.Sym)
	require.NotNil(t, cfg.Quant.AWQ)
	assert.True(t, *cfg.Quant.AWQ)
	assert.Equal(t, "wikitext2", cfg.Quant.Dataset)

	// Unset pointer options stay nil
	assert.Nil(t, cfg.Quant.AllLayers)
	assert.Nil(t, cfg.Quant.GPTQ)
	assert.Nil(t, cfg.Quant.SmoothQuantAlpha)
}

func TestPassConfigFromFlagsFullQuant(t *testing.T) {
	cmd := newFlagCommand(t, []string{
		"--quant-mode", "f8e4m3",
		"--dataset", "librispeech",
		"--num-samples", "32",
		"--smooth-quant-alpha", "0.5",
	})
	cfg := passConfigFromFlags(cmd)

	require.NotNil(t, cfg.Quant)
	assert.Equal(t, "f8e4m3", cfg.Quant.QuantMode)
	assert.Equal(t, "librispeech", cfg.Quant.Dataset)
	require.NotNil(t, cfg.Quant.NumSamples)
	assert.Equal(t, 32, *cfg.Quant.NumSamples)
	require.NotNil(t, cfg.Quant.SmoothQuantAlpha)
	assert.Equal(t, 0.5, *cfg.Quant.SmoothQuantAlpha)
}

func TestPassConfigFromFlagsExtraArgs(t *testing.T) {
	cmd := newFlagCommand(t, []string{
		"--library", "diffusers",
		"--framework", "pt",
		"--task", "text-to-image",
		"--device", "GPU",
		"--component", "unet",
		"--component", "vae_decoder",
		"--trust-remote-code",
		"--disable-stateful",
	})
	cfg := passConfigFromFlags(cmd)

	require.NotNil(t, cfg.ExtraArgs)
	assert.Equal(t, "diffusers", cfg.ExtraArgs.Library)
	assert.Equal(t, "pt", cfg.ExtraArgs.Framework)
	assert.Equal(t, "text-to-image", cfg.ExtraArgs.Task)
	assert.True(t, cfg.ExtraArgs.DisableStateful)
	require.NotNil(t, cfg.ExtraArgs.TrustRemoteCode)
	assert.True(t, *cfg.ExtraArgs.TrustRemoteCode)

	assert.Equal(t, "GPU", string(cfg.Device))
	assert.Equal(t, []string{"unet", "vae_decoder"}, cfg.Components)

	// trust-remote-code flows into the quantization options too
	cmd = newFlagCommand(t, []string{"--weight-format", "int8", "--trust-remote-code"})
	cfg = passConfigFromFlags(cmd)
	require.NotNil(t, cfg.Quant)
	assert.True(t, cfg.Quant.TrustRemoteCode)
}

func TestDefaultOutputName(t *testing.T) {
	assert.Equal(t, "microsoft_phi-2", defaultOutputName("microsoft/phi-2"))
	assert.Equal(t, "local-model", defaultOutputName("local-model"))
}
