package cluster

import (
	"fmt"

	"github.com/jmcastellanojimenez/ekscompose/pkg/types"
	"gopkg.in/yaml.v3"
)

// ClusterConfig represents a complete cluster configuration loaded from disk
type ClusterConfig struct {
	StackName string     `yaml:"stackName,omitempty" json:"stack_name,omitempty"`
	Account   string     `yaml:"account" json:"account" validate:"required,numeric,len=12"`
	Region    string     `yaml:"region" json:"region" validate:"required"`
	Tags      TagsConfig `yaml:"tags" json:"tags" validate:"required"`
	Projects  Projects   `yaml:"projects" json:"projects" validate:"required,min=1,dive"`
}

// TagsConfig holds the tags applied to every cluster resource
type TagsConfig struct {
	Environment string `yaml:"environment" json:"environment" validate:"required"`
	Project     string `yaml:"project" json:"project" validate:"required"`
}

// Project is a named project configuration
type Project struct {
	Name string `validate:"required"`
	ProjectConfig
}

// ProjectConfig defines the cluster and node pools of one project
type ProjectConfig struct {
	VpcID         string            `yaml:"vpcId" json:"vpc_id" validate:"required"`
	K8sVersion    string            `yaml:"k8sVersion" json:"k8s_version" validate:"required"`
	ClusterName   string            `yaml:"clusterName" json:"cluster_name"`
	InstallCilium bool              `yaml:"installCilium" json:"install_cilium"`
	NodeGroups    []NodeGroupConfig `yaml:"nodegroups" json:"nodegroups" validate:"required,min=1,dive"`
}

// NodeGroupConfig defines one node pool
type NodeGroupConfig struct {
	NodeName          string     `yaml:"nodeName" json:"node_name" validate:"required"`
	NodeSize          types.Size `yaml:"nodeSize" json:"node_size" validate:"nodesize"`
	MaxNumberNodes    int        `yaml:"maxNumberNodes" json:"max_number_nodes" validate:"min=1"`
	DesireNumberNodes int        `yaml:"desireNumberNodes" json:"desire_number_nodes" validate:"min=1"`
}

// Projects keeps projects in the order they are declared in the file
type Projects []Project

// UnmarshalYAML decodes a mapping of project name to config, preserving key order
func (p *Projects) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: projects must be a mapping", value.Line)
	}

	seen := make(map[string]bool, len(value.Content)/2)
	projects := make(Projects, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, body := value.Content[i], value.Content[i+1]

		if seen[key.Value] {
			return fmt.Errorf("line %d: duplicate project %q", key.Line, key.Value)
		}
		seen[key.Value] = true

		var cfg ProjectConfig
		if err := body.Decode(&cfg); err != nil {
			return fmt.Errorf("decode project %s: %w", key.Value, err)
		}

		projects = append(projects, Project{Name: key.Value, ProjectConfig: cfg})
	}

	*p = projects
	return nil
}

// Get returns the project with the given name
func (p Projects) Get(name string) (Project, bool) {
	for _, project := range p {
		if project.Name == name {
			return project, true
		}
	}
	return Project{}, false
}

// Names returns project names in declaration order
func (p Projects) Names() []string {
	names := make([]string, len(p))
	for i, project := range p {
		names[i] = project.Name
	}
	return names
}
