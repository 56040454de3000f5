// Package config loads gateway rule files.
//
// A rule file is YAML with a top-level http.rules list:
//
//	http:
//	  rules:
//	    - selector: example.Example.SayHello
//	      get: /hello/{name}
//	      post: /hello
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ruteri/rest2grpc/interfaces"
	"gopkg.in/yaml.v3"
)

// ErrMissingConfigSection is returned when a rule file has no http.rules list.
var ErrMissingConfigSection = errors.New("missing http.rules section")

// File is the top-level structure of a rule file.
type File struct {
	HTTP *HTTPSection `yaml:"http"`
}

// HTTPSection holds the HTTP rules.
type HTTPSection struct {
	Rules []interfaces.Rule `yaml:"rules"`
}

// Parse decodes a rule file from data.
func Parse(data []byte) ([]interfaces.Rule, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding rule file: %w", err)
	}
	if f.HTTP == nil || f.HTTP.Rules == nil {
		return nil, ErrMissingConfigSection
	}
	return f.HTTP.Rules, nil
}

// LoadFile reads and decodes the rule file at path.
func LoadFile(path string) ([]interfaces.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file %s: %w", path, err)
	}

	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("unexpected content in rule file %s: %w", path, err)
	}
	return rules, nil
}
