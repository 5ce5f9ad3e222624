package types

import (
	"time"
)

// Device identifies the accelerator used to run the export.
type Device string

const (
	DeviceCPU  Device = "cpu"
	DeviceGPU  Device = "gpu"
	DeviceNPU  Device = "npu"
	DeviceAuto Device = "auto"
)

// LoadKwargs carries load-time options attached to a model reference.
type LoadKwargs struct {
	TrustRemoteCode bool `json:"trust_remote_code"`
}

// ModelReference identifies the model to convert. NameOrPath is either a
// local checkpoint directory or a hub-style identifier such as
// "meta-llama/Llama-3.1-8B".
type ModelReference struct {
	NameOrPath string                 `json:"name_or_path"`
	LoadKwargs *LoadKwargs            `json:"load_kwargs,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Handler is the artifact produced by a conversion: either a single converted
// model or a named composite of components. Path always points at the
// directory holding the converted files.
type Handler interface {
	Path() string
	ComponentNames() []string
}

// ModelHandler references a single converted model directory.
type ModelHandler struct {
	ModelPath       string                 `json:"model_path"`
	ModelAttributes map[string]interface{} `json:"model_attributes,omitempty"`
}

func (h *ModelHandler) Path() string { return h.ModelPath }

func (h *ModelHandler) ComponentNames() []string { return nil }

// CompositeModelHandler wraps a named, ordered collection of component
// handlers. All components of one conversion share the same output directory.
type CompositeModelHandler struct {
	Names      []string        `json:"component_names"`
	Components []*ModelHandler `json:"components"`
}

func (h *CompositeModelHandler) Path() string {
	if len(h.Components) == 0 {
		return ""
	}
	return h.Components[0].ModelPath
}

func (h *CompositeModelHandler) ComponentNames() []string { return h.Names }

// HFConfig represents the subset of a Hugging Face config.json we inspect
// when inferring the model library and task.
type HFConfig struct {
	ModelType             string                 `json:"model_type"`
	Architectures         []string               `json:"architectures"`
	NumParameters         int64                  `json:"num_parameters"`
	HiddenSize            int                    `json:"hidden_size"`
	NumHiddenLayers       int                    `json:"num_hidden_layers"`
	NumAttentionHeads     int                    `json:"num_attention_heads"`
	MaxPositionEmbeddings int                    `json:"max_position_embeddings"`
	Quantization          map[string]interface{} `json:"quantization_config"`
}

// DiffusionIndex represents the subset of a diffusers model_index.json we
// inspect when resolving the pipeline class.
type DiffusionIndex struct {
	ClassName        string `json:"_class_name"`
	DiffusersVersion string `json:"_diffusers_version"`
}

// OutputManifest is written next to converted artifacts after a successful
// conversion. It is informational only; conversion success is never decided
// from it.
type OutputManifest struct {
	Name        string         `json:"name"`
	SourceModel string         `json:"source_model"`
	Components  []string       `json:"components"`
	Files       []ManifestFile `json:"files"`
	TotalSize   int64          `json:"total_size"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ManifestFile records one exported file.
type ManifestFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}
