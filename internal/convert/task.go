package convert

import (
	"strings"
)

// visionLanguageModelTypes are transformer model types whose checkpoints
// serve the image-text-to-text task.
var visionLanguageModelTypes = map[string]bool{
	"llava":            true,
	"llava_next":       true,
	"idefics3":         true,
	"internvl_chat":    true,
	"minicpmv":         true,
	"qwen2_vl":         true,
	"qwen2_5_vl":       true,
	"phi3_v":           true,
}

// speechModelTypes are transformer model types whose checkpoints serve the
// automatic-speech-recognition task.
var speechModelTypes = map[string]bool{
	"whisper":  true,
	"speecht5": true,
	"speech_to_text": true,
}

// InferTask resolves the export task. An explicit task wins; "auto" or empty
// derives the task from the checkpoint.
func InferTask(task, modelNameOrPath, library string) string {
	if task != "" && task != "auto" {
		return task
	}

	switch library {
	case "diffusers":
		return "text-to-image"
	case "timm", "open_clip":
		return "image-classification"
	case "sentence_transformers":
		return "feature-extraction"
	}

	cfg, err := ReadHFConfig(modelNameOrPath)
	if err != nil {
		// Hub identifiers without a local checkout fall back to name
		// heuristics.
		return inferTaskFromName(modelNameOrPath)
	}

	if speechModelTypes[cfg.ModelType] {
		return "automatic-speech-recognition"
	}
	if visionLanguageModelTypes[cfg.ModelType] {
		return "image-text-to-text"
	}
	for _, arch := range cfg.Architectures {
		switch {
		case strings.HasSuffix(arch, "ForCausalLM"), strings.HasSuffix(arch, "LMHeadModel"):
			return "text-generation"
		case strings.HasSuffix(arch, "ForSpeechSeq2Seq"):
			return "automatic-speech-recognition"
		case strings.HasSuffix(arch, "ForConditionalGeneration"):
			return "text2text-generation"
		case strings.HasSuffix(arch, "ForSequenceClassification"):
			return "text-classification"
		case strings.HasSuffix(arch, "ForTokenClassification"):
			return "token-classification"
		case strings.HasSuffix(arch, "ForQuestionAnswering"):
			return "question-answering"
		case strings.HasSuffix(arch, "ForMaskedLM"):
			return "fill-mask"
		}
	}
	return "feature-extraction"
}

func inferTaskFromName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "whisper"):
		return "automatic-speech-recognition"
	case strings.Contains(lower, "llava"), strings.Contains(lower, "-vl"):
		return "image-text-to-text"
	case strings.Contains(lower, "llama"), strings.Contains(lower, "mistral"),
		strings.Contains(lower, "qwen"), strings.Contains(lower, "phi"),
		strings.Contains(lower, "gpt"), strings.Contains(lower, "gemma"):
		return "text-generation"
	default:
		return "feature-extraction"
	}
}
