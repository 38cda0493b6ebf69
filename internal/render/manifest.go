package render

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jmcastellanojimenez/ekscompose/internal/graph"
)

// ManifestGraph is one project graph as written to the manifest
type ManifestGraph struct {
	Project string       `yaml:"project"`
	Digest  string       `yaml:"digest"`
	Order   []string     `yaml:"order"`
	Nodes   []graph.Node `yaml:"nodes"`
}

// Manifest is a readable summary of every rendered graph
type Manifest struct {
	Cluster string          `yaml:"cluster"`
	Graphs  []ManifestGraph `yaml:"graphs"`
}

// Manifest renders graphs as a YAML manifest in dependency order
func (r *Renderer) Manifest(clusterID string, graphs []*graph.Graph) ([]byte, error) {
	manifest := Manifest{
		Cluster: clusterID,
		Graphs:  make([]ManifestGraph, 0, len(graphs)),
	}

	for _, g := range graphs {
		order, err := g.TopologicalOrder()
		if err != nil {
			return nil, fmt.Errorf("order graph %s: %w", g.Name(), err)
		}

		digest, err := g.Digest()
		if err != nil {
			return nil, fmt.Errorf("digest graph %s: %w", g.Name(), err)
		}

		manifest.Graphs = append(manifest.Graphs, ManifestGraph{
			Project: g.Name(),
			Digest:  digest,
			Order:   order,
			Nodes:   g.Nodes(),
		})
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}

	return data, nil
}
