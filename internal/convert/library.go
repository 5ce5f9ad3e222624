package convert

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ovforge/ovforge/pkg/types"
)

const (
	diffusionIndexFile       = "model_index.json"
	hfConfigFile             = "config.json"
	sentenceTransformersFile = "config_sentence_transformers.json"
	openCLIPConfigFile       = "open_clip_config.json"
)

// InferLibrary determines which model library a checkpoint belongs to. For a
// local checkpoint directory the marker files are authoritative; for hub
// identifiers we fall back to naming conventions.
func InferLibrary(modelNameOrPath string) string {
	if info, err := os.Stat(modelNameOrPath); err == nil && info.IsDir() {
		return inferLibraryFromDir(modelNameOrPath)
	}
	return inferLibraryFromName(modelNameOrPath)
}

func inferLibraryFromDir(dir string) string {
	if fileExists(filepath.Join(dir, diffusionIndexFile)) {
		return "diffusers"
	}
	if fileExists(filepath.Join(dir, sentenceTransformersFile)) {
		return "sentence_transformers"
	}
	if fileExists(filepath.Join(dir, openCLIPConfigFile)) {
		return "open_clip"
	}
	// timm checkpoints carry a config.json with a pretrained_cfg section
	// instead of transformers-style architectures.
	if cfg, err := readRawConfig(dir); err == nil {
		if _, ok := cfg["pretrained_cfg"]; ok {
			return "timm"
		}
	}
	return "transformers"
}

func inferLibraryFromName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "sentence-transformers/"):
		return "sentence_transformers"
	case strings.HasPrefix(lower, "timm/"):
		return "timm"
	case strings.Contains(lower, "stable-diffusion"),
		strings.Contains(lower, "latent-consistency"),
		strings.Contains(lower, "sdxl"),
		strings.Contains(lower, "flux"):
		return "diffusers"
	case strings.Contains(lower, "open_clip"), strings.HasPrefix(lower, "laion/clip-"):
		return "open_clip"
	default:
		return "transformers"
	}
}

// resolveLibrary applies the library override from extra args, or infers one.
// sentence_transformers is ambiguous with transformers when inferred, so the
// inference result falls back to transformers with a warning.
func resolveLibrary(model types.ModelReference, extra *ExtraArgs) string {
	if extra.Library != "" {
		return extra.Library
	}
	lib := InferLibrary(model.NameOrPath)
	if lib == "sentence_transformers" {
		log.Printf("library name is not specified; both sentence_transformers and transformers can load %s, selecting transformers. Set library to sentence_transformers to override.",
			model.NameOrPath)
		lib = "transformers"
	}
	return lib
}

// ReadHFConfig reads the Hugging Face config.json of a local checkpoint.
func ReadHFConfig(dir string) (*types.HFConfig, error) {
	data, err := os.ReadFile(filepath.Join(dir, hfConfigFile))
	if err != nil {
		return nil, fmt.Errorf("read model config: %w", err)
	}
	var cfg types.HFConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse model config: %w", err)
	}
	return &cfg, nil
}

// ReadDiffusionIndex reads the diffusers model_index.json of a local
// pipeline checkpoint.
func ReadDiffusionIndex(dir string) (*types.DiffusionIndex, error) {
	data, err := os.ReadFile(filepath.Join(dir, diffusionIndexFile))
	if err != nil {
		return nil, fmt.Errorf("read pipeline config: %w", err)
	}
	var idx types.DiffusionIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse pipeline config: %w", err)
	}
	return &idx, nil
}

func readRawConfig(dir string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(filepath.Join(dir, hfConfigFile))
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
