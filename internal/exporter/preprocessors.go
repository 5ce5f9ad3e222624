package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// preprocessorFiles are the tokenizer and feature-extractor artifacts saved
// next to an exported model when present in the source checkpoint.
var preprocessorFiles = []string{
	"tokenizer.json",
	"tokenizer_config.json",
	"special_tokens_map.json",
	"vocab.json",
	"vocab.txt",
	"merges.txt",
	"tokenizer.model",
	"preprocessor_config.json",
	"generation_config.json",
	"chat_template.json",
	"processor_config.json",
	"added_tokens.json",
}

func copyPreprocessorFiles(sourceDir, outputDir string) error {
	for _, name := range preprocessorFiles {
		src := filepath.Join(sourceDir, name)
		info, err := os.Stat(src)
		if err != nil || info.IsDir() {
			continue
		}
		if err := copyFile(src, filepath.Join(outputDir, name)); err != nil {
			return fmt.Errorf("copy preprocessor %s: %w", name, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
