package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

// sampleFile is the mapping form of a samples file. A bare YAML sequence of
// samples is accepted as well.
type sampleFile struct {
	Collection string                    `yaml:"collection"`
	TopK       int                       `yaml:"topk"`
	Samples    []domain.EvaluationSample `yaml:"samples"`
}

func loadSamples(path string) (sampleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sampleFile{}, fmt.Errorf("read samples: %w", err)
	}
	return parseSamples(data)
}

func parseSamples(data []byte) (sampleFile, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return sampleFile{}, fmt.Errorf("parse samples: %w", err)
	}
	if len(root.Content) == 0 {
		return sampleFile{}, fmt.Errorf("samples file is empty")
	}

	var out sampleFile
	switch doc := root.Content[0]; doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&out.Samples); err != nil {
			return sampleFile{}, fmt.Errorf("decode samples: %w", err)
		}
	case yaml.MappingNode:
		if err := doc.Decode(&out); err != nil {
			return sampleFile{}, fmt.Errorf("decode samples: %w", err)
		}
	default:
		return sampleFile{}, fmt.Errorf("samples file must be a list or a mapping, line %d", doc.Line)
	}

	if len(out.Samples) == 0 {
		return sampleFile{}, fmt.Errorf("samples file has no samples")
	}
	for i, s := range out.Samples {
		if strings.TrimSpace(s.Query) == "" {
			return sampleFile{}, fmt.Errorf("sample %d has an empty query", i)
		}
	}
	return out, nil
}
