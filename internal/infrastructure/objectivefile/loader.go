// Package objectivefile reads person records from JSON or YAML files.
package objectivefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"form-agent/internal/domain/entity"
)

// Load decodes path by extension (.yaml/.yml as YAML, anything else as
// JSON) and validates the result.
func Load(path string) (entity.Objective, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return entity.Objective{}, fmt.Errorf("read objective: %w", err)
	}

	var o entity.Objective
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &o)
	default:
		err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &o)
	}
	if err != nil {
		return entity.Objective{}, fmt.Errorf("decode objective %s: %w", filepath.Base(path), err)
	}

	if err := o.Validate(); err != nil {
		return entity.Objective{}, err
	}
	return o, nil
}
