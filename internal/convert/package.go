package convert

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ovforge/ovforge/pkg/types"
)

// ModelFileExtension marks runtime model files in the output directory.
// Success is determined purely by the presence of such files after the
// export returns.
const ModelFileExtension = ".xml"

// packageArtifacts lists the exported components in the output directory,
// verifies the expected ones are all present, and wraps the directory in a
// single or composite handler.
func packageArtifacts(outputPath string, expected []string, attributes map[string]interface{}) (types.Handler, error) {
	exported, err := listExportedComponents(outputPath)
	if err != nil {
		return nil, err
	}

	if len(expected) > 0 {
		for _, component := range expected {
			if !contains(exported, component) {
				return nil, fmt.Errorf("%w: components %v are not exported, only %v are exported",
					ErrComponentsMissing, expected, exported)
			}
		}
	}

	components := expected
	if len(components) == 0 {
		components = exported
	}
	log.Printf("exported models are %v, returning components %v", exported, components)

	// A single component is returned directly, with the folder as the model
	// path.
	if len(components) == 1 {
		return &types.ModelHandler{ModelPath: outputPath}, nil
	}

	// All components of this export mode live in the same folder, so every
	// handler references the shared output directory.
	composite := &types.CompositeModelHandler{}
	for _, name := range components {
		composite.Names = append(composite.Names, name)
		composite.Components = append(composite.Components, &types.ModelHandler{
			ModelPath:       outputPath,
			ModelAttributes: attributes,
		})
	}
	return composite, nil
}

// listExportedComponents returns the base names of runtime model files in
// the output directory, in lexical order.
func listExportedComponents(outputPath string) ([]string, error) {
	entries, err := os.ReadDir(outputPath)
	if err != nil {
		return nil, fmt.Errorf("list output directory: %w", err)
	}
	var exported []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == ModelFileExtension {
			exported = append(exported, strings.TrimSuffix(entry.Name(), ModelFileExtension))
		}
	}
	sort.Strings(exported)
	return exported, nil
}
