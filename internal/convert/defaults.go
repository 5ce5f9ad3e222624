package convert

import "strings"

// curatedInt4Configs hold per-model 4-bit compression settings tuned by the
// quantization library upstream. Keys are lowercase hub identifiers.
var curatedInt4Configs = map[string]WeightCompressionConfig{
	"meta-llama/llama-2-7b-chat-hf": {
		Bits: 4, Ratio: 0.8, Sym: true, GroupSize: intPtr(128),
		QuantMethod: "default", Dtype: "int4",
	},
	"meta-llama/llama-3.1-8b": {
		Bits: 4, Ratio: 1.0, Sym: true, GroupSize: intPtr(128),
		QuantMethod: "awq", Dtype: "int4",
	},
	"meta-llama/meta-llama-3-8b-instruct": {
		Bits: 4, Ratio: 0.8, Sym: true, GroupSize: intPtr(128),
		QuantMethod: "default", Dtype: "int4",
	},
	"mistralai/mistral-7b-v0.1": {
		Bits: 4, Ratio: 0.9, Sym: true, GroupSize: intPtr(128),
		QuantMethod: "default", Dtype: "int4",
	},
	"microsoft/phi-2": {
		Bits: 4, Ratio: 0.9, Sym: true, GroupSize: intPtr(128),
		QuantMethod: "default", Dtype: "int4",
	},
	"qwen/qwen2-7b-instruct": {
		Bits: 4, Ratio: 1.0, Sym: true, GroupSize: intPtr(128),
		QuantMethod: "awq", Dtype: "int4",
	},
	"stabilityai/stablelm-2-zephyr-1_6b": {
		Bits: 4, Ratio: 1.0, Sym: true, GroupSize: intPtr(64),
		QuantMethod: "default", Dtype: "int4",
	},
}

// defaultInt4Config returns the model-specific default 4-bit compression
// config, falling back to the generic library default when the model is not
// in the curated table.
func defaultInt4Config(modelNameOrPath string) WeightCompressionConfig {
	key := strings.ToLower(strings.TrimSuffix(modelNameOrPath, "/"))
	if cfg, ok := curatedInt4Configs[key]; ok {
		return cfg
	}
	// Local checkpoint paths still match when their last two path elements
	// form a known hub id.
	parts := strings.Split(key, "/")
	if len(parts) >= 2 {
		tail := parts[len(parts)-2] + "/" + parts[len(parts)-1]
		if cfg, ok := curatedInt4Configs[tail]; ok {
			return cfg
		}
	}

	allLayers := false
	return WeightCompressionConfig{
		Bits:        4,
		Ratio:       defaultFourBitRatio,
		Sym:         false,
		GroupSize:   intPtr(defaultFourBitGroupSize),
		AllLayers:   &allLayers,
		QuantMethod: "default",
		Dtype:       "int4",
	}
}

func intPtr(v int) *int { return &v }
