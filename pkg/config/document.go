// Package config decodes and validates the mesh document: the YAML or JSON
// file that declares a mesh's name, network, and member nodes.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sitbon/wgmesh/pkg/sshrun"
	"gopkg.in/yaml.v3"
)

// NodeDoc is one node's declaration in the mesh document.
type NodeDoc struct {
	Addr       string         `yaml:"addr" json:"addr"`
	SSH        sshrun.Spec    `yaml:"ssh" json:"ssh"`
	Endpoint   string         `yaml:"endpoint" json:"endpoint"`
	ListenPort int            `yaml:"listen_port,omitempty" json:"listen_port,omitempty"`
	Prio       *int           `yaml:"prio,omitempty" json:"prio,omitempty"`
	JSON       map[string]any `yaml:"json,omitempty" json:"json,omitempty"`
}

// Document is the decoded mesh document.
type Document struct {
	Name    string             `yaml:"name" json:"name"`
	Network string             `yaml:"network" json:"network"`
	Full    *bool              `yaml:"full,omitempty" json:"full,omitempty"`
	Nodes   map[string]NodeDoc `yaml:"nodes" json:"nodes"`
}

// Load decodes a mesh document from r. The format is YAML unless forceJSON
// is set or filename doesn't carry a .yaml/.yml extension, matching the
// CLI's -j/--json flag and file-extension auto-detection.
func Load(r io.Reader, filename string, forceJSON bool) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read mesh document: %w", err)
	}

	lower := strings.ToLower(filename)
	useJSON := forceJSON || !(strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml"))

	var doc Document
	if useJSON {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse mesh document as JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse mesh document as YAML: %w", err)
		}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the document for the structural requirements every
// operation depends on: required fields, name uniqueness (guaranteed by the
// map itself), and in-range priorities.
func (d *Document) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("mesh: name is required")
	}
	if d.Network == "" {
		return fmt.Errorf("mesh %q: network is required", d.Name)
	}
	if len(d.Nodes) == 0 {
		return fmt.Errorf("mesh %q: at least one node is required", d.Name)
	}

	for name, node := range d.Nodes {
		if name == "" {
			return fmt.Errorf("mesh %q: node name must not be empty", d.Name)
		}
		if node.Addr == "" {
			return fmt.Errorf("mesh %q: node %q: addr is required", d.Name, name)
		}
		if node.SSH.Host == "" {
			return fmt.Errorf("mesh %q: node %q: ssh is required", d.Name, name)
		}
		if node.Endpoint == "" {
			return fmt.Errorf("mesh %q: node %q: endpoint is required", d.Name, name)
		}
		if node.ListenPort != 0 && (node.ListenPort < 1 || node.ListenPort > 65535) {
			return fmt.Errorf("mesh %q: node %q: listen_port %d out of range", d.Name, name, node.ListenPort)
		}
		if node.Prio != nil && (*node.Prio < -8 || *node.Prio > 7) {
			return fmt.Errorf("mesh %q: node %q: prio %d out of range [-8,7]", d.Name, name, *node.Prio)
		}
	}

	return nil
}
