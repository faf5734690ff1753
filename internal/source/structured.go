package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/beam-label/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// beamDocument is the mapping form of a structured record file:
//
//	beams:
//	  - label: B1-1
//	    x: 0
//	    y: 0
type beamDocument struct {
	Beams []models.BeamLabelRecord `json:"beams" yaml:"beams"`
}

// YAMLReader reads records from a YAML list, either top-level or under a
// "beams" key.
type YAMLReader struct{}

func NewYAMLReader() *YAMLReader {
	return &YAMLReader{}
}

func (r *YAMLReader) Name() string {
	return "yaml"
}

func (r *YAMLReader) Extensions() []string {
	return []string{".yaml", ".yml"}
}

func (r *YAMLReader) CanRead(filePath string) bool {
	return hasExtension(filePath, r.Extensions())
}

func (r *YAMLReader) Read(ctx context.Context, filePath string) (*Result, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return r.ReadFrom(ctx, file)
}

// ReadFrom reads YAML content from src.
func (r *YAMLReader) ReadFrom(ctx context.Context, src io.Reader) (*Result, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	res := newResult(r.Name())
	if len(node.Content) == 0 {
		return res, nil
	}

	var records []models.BeamLabelRecord
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		err = root.Decode(&records)
	case yaml.MappingNode:
		var doc beamDocument
		err = root.Decode(&doc)
		records = doc.Beams
	default:
		return nil, fmt.Errorf("failed to parse YAML: expected a list of beams or a beams: key")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode beams: %w", err)
	}

	res.Records = normalizeAll(records)
	return res, nil
}

// JSONReader reads records from a JSON array or {"beams": [...]} object.
type JSONReader struct{}

func NewJSONReader() *JSONReader {
	return &JSONReader{}
}

func (r *JSONReader) Name() string {
	return "json"
}

func (r *JSONReader) Extensions() []string {
	return []string{".json"}
}

func (r *JSONReader) CanRead(filePath string) bool {
	return hasExtension(filePath, r.Extensions())
}

func (r *JSONReader) Read(ctx context.Context, filePath string) (*Result, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return r.ReadFrom(ctx, file)
}

// ReadFrom reads JSON content from src.
func (r *JSONReader) ReadFrom(ctx context.Context, src io.Reader) (*Result, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []models.BeamLabelRecord
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &records)
	} else {
		var doc beamDocument
		err = json.Unmarshal(trimmed, &doc)
		records = doc.Beams
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	res := newResult(r.Name())
	res.Records = normalizeAll(records)
	return res, nil
}

func normalizeAll(records []models.BeamLabelRecord) []models.BeamLabelRecord {
	out := make([]models.BeamLabelRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Normalize())
	}
	return out
}
