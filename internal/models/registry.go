package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ovforge/ovforge/internal/storage"
	"github.com/ovforge/ovforge/pkg/types"
)

const (
	ManifestFileName = ".ovforge.json"
	ModelExtension   = ".xml"
)

// Registry tracks converted models found under the outputs directory
type Registry struct {
	mu     sync.RWMutex
	models map[string]*types.OutputManifest
	paths  *storage.Paths
}

// NewRegistry creates a new registry instance and scans for converted models
func NewRegistry(paths *storage.Paths) (*Registry, error) {
	r := &Registry{
		models: make(map[string]*types.OutputManifest),
		paths:  paths,
	}

	// Initialize directories
	if err := paths.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize paths: %w", err)
	}

	// Scan for existing outputs
	if err := r.ScanOutputs(); err != nil {
		return nil, fmt.Errorf("failed to scan outputs: %w", err)
	}

	return r, nil
}

// ScanOutputs scans the outputs directory and builds the registry
func (r *Registry) ScanOutputs() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	outputsDir := r.paths.OutputsDir()

	// Check if outputs directory exists
	if _, err := os.Stat(outputsDir); os.IsNotExist(err) {
		// No outputs directory yet, that's ok
		return nil
	}

	entries, err := os.ReadDir(outputsDir)
	if err != nil {
		return fmt.Errorf("failed to read outputs directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name := entry.Name()
		outputPath := filepath.Join(outputsDir, name)

		// Prefer a manifest written at conversion time
		manifestPath := filepath.Join(outputPath, ManifestFileName)
		if manifest, err := r.loadManifest(manifestPath); err == nil {
			manifest.Name = name // Ensure name matches directory
			r.models[name] = manifest
			continue
		}

		// Otherwise index any directory that holds OpenVINO IR files
		if len(listComponents(outputPath)) == 0 {
			continue
		}

		manifest, err := r.generateManifest(outputPath, name)
		if err != nil {
			continue
		}
		r.models[name] = manifest
		// Save the generated manifest
		r.saveManifestToDisk(manifest)
	}

	return nil
}

// loadManifest loads an output manifest from disk
func (r *Registry) loadManifest(path string) (*types.OutputManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var manifest types.OutputManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}

	return &manifest, nil
}

// generateManifest builds a manifest by scanning a converted model directory
func (r *Registry) generateManifest(outputPath, name string) (*types.OutputManifest, error) {
	manifest := &types.OutputManifest{
		Name:       name,
		Components: listComponents(outputPath),
		CreatedAt:  time.Now(),
	}

	var totalSize int64
	var files []types.ManifestFile

	err := filepath.Walk(outputPath, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		relPath, _ := filepath.Rel(outputPath, path)
		relPath = filepath.ToSlash(relPath)

		// Skip the manifest itself
		if relPath == ManifestFileName {
			return nil
		}

		// Hashing weight binaries is expensive, so only hash small files
		hash := ""
		if info.Size() < 100*1024*1024 {
			if h, err := r.hashFile(path); err == nil {
				hash = h
			}
		}

		files = append(files, types.ManifestFile{
			Path:   relPath,
			Size:   info.Size(),
			SHA256: hash,
		})

		totalSize += info.Size()
		return nil
	})

	if err != nil {
		return nil, err
	}

	manifest.Files = files
	manifest.TotalSize = totalSize

	return manifest, nil
}

// hashFile calculates SHA256 hash of a file
func (r *Registry) hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// listComponents returns the sorted IR component names in a directory
func listComponents(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var components []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ModelExtension) {
			components = append(components, strings.TrimSuffix(name, ModelExtension))
		}
	}
	sort.Strings(components)
	return components
}

// GetManifest retrieves an output manifest
func (r *Registry) GetManifest(name string) (*types.OutputManifest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	manifest, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("model %s not found in registry", name)
	}
	return manifest, nil
}

// SaveManifest saves an output manifest
func (r *Registry) SaveManifest(manifest *types.OutputManifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Save to memory
	r.models[manifest.Name] = manifest

	// Save to disk
	return r.saveManifestToDisk(manifest)
}

// saveManifestToDisk saves a manifest to the output directory
func (r *Registry) saveManifestToDisk(manifest *types.OutputManifest) error {
	outputPath := r.paths.OutputPath(manifest.Name)

	// Ensure output directory exists
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	manifestPath := filepath.Join(outputPath, ManifestFileName)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	return os.WriteFile(manifestPath, data, 0644)
}

// ListModels returns all converted model names in the registry
func (r *Registry) ListModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.models))
	for name := range r.models {
		models = append(models, name)
	}
	sort.Strings(models)
	return models
}

// GetAllManifests returns all manifests in the registry
func (r *Registry) GetAllManifests() []*types.OutputManifest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	manifests := make([]*types.OutputManifest, 0, len(r.models))
	for _, manifest := range r.models {
		manifests = append(manifests, manifest)
	}
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].Name < manifests[j].Name
	})
	return manifests
}

// RecordConversion builds and saves a manifest for a freshly converted model
func (r *Registry) RecordConversion(name, sourceModel string, handler types.Handler) (*types.OutputManifest, error) {
	manifest, err := r.generateManifest(handler.Path(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate manifest: %w", err)
	}

	manifest.SourceModel = sourceModel
	if components := handler.ComponentNames(); len(components) > 0 {
		manifest.Components = components
	}

	if err := r.SaveManifest(manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// DeleteModel removes a model from the registry (but not from disk)
func (r *Registry) DeleteModel(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[name]; !ok {
		return fmt.Errorf("model %s not found", name)
	}

	delete(r.models, name)
	return nil
}

// RefreshModel re-scans a specific output and updates its manifest
func (r *Registry) RefreshModel(name string) error {
	outputPath := r.paths.OutputPath(name)

	// Check if output directory exists
	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		return fmt.Errorf("output directory does not exist: %s", outputPath)
	}

	// Always regenerate the manifest to pick up file changes
	manifest, err := r.generateManifest(outputPath, name)
	if err != nil {
		return fmt.Errorf("failed to generate manifest: %w", err)
	}

	// Preserve fields that a rescan cannot reconstruct
	manifestPath := filepath.Join(outputPath, ManifestFileName)
	if oldManifest, err := r.loadManifest(manifestPath); err == nil {
		if oldManifest.SourceModel != "" {
			manifest.SourceModel = oldManifest.SourceModel
		}
		if !oldManifest.CreatedAt.IsZero() {
			manifest.CreatedAt = oldManifest.CreatedAt
		}
	}

	// Update registry
	r.mu.Lock()
	r.models[name] = manifest
	r.mu.Unlock()

	// Save to disk
	return r.saveManifestToDisk(manifest)
}

// Rescan triggers a full rescan of the outputs directory
func (r *Registry) Rescan() error {
	// Clear existing models
	r.mu.Lock()
	r.models = make(map[string]*types.OutputManifest)
	r.mu.Unlock()

	// Scan again
	return r.ScanOutputs()
}
