package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlFile mirrors the on-disk model declaration format: each
// relationship carries its kind, target model, and optional inverse name.
//
// Example:
//
//	planet:
//	  attributes: [name, classification, revised]
//	  relationships:
//	    moons:
//	      kind: hasMany
//	      model: moon
//	      inverse: planet
//	    solarSystem:
//	      kind: hasOne
//	      model: solarSystem
//	      inverse: planets
type yamlFile map[string]yamlModel

type yamlModel struct {
	Attributes    []string                   `yaml:"attributes"`
	Keys          []string                   `yaml:"keys"`
	Relationships map[string]yamlRelationship `yaml:"relationships"`
}

type yamlRelationship struct {
	Kind    string `yaml:"kind"`
	Model   string `yaml:"model"`
	Inverse string `yaml:"inverse"`
}

// LoadFile parses a YAML model-declaration file into a View.
func LoadFile(path string) (View, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML model-declaration bytes into a View.
func Parse(data []byte) (View, error) {
	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("schema: parse: %w", err)
	}

	models := make([]ModelSchema, 0, len(file))
	for modelType, decl := range file {
		b := NewBuilder(modelType)
		for _, a := range decl.Attributes {
			b.Attribute(a)
		}
		for _, k := range decl.Keys {
			b.Key(k)
		}
		for name, rel := range decl.Relationships {
			switch rel.Kind {
			case "hasOne":
				b.HasOne(name, rel.Model, rel.Inverse)
			case "hasMany":
				b.HasMany(name, rel.Model, rel.Inverse)
			default:
				return nil, fmt.Errorf("schema: model %q relationship %q: unknown kind %q (want hasOne or hasMany)", modelType, name, rel.Kind)
			}
		}
		models = append(models, b.Build())
	}
	return NewStaticView(models...), nil
}
