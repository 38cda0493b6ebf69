// Package builder assembles the resource graph of one project: the cluster,
// one node group per pool, the shared key pair, the bootstrap step and the
// managed addon set.
package builder

import (
	"fmt"

	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"

	"github.com/jmcastellanojimenez/ekscompose/internal/addons"
	"github.com/jmcastellanojimenez/ekscompose/internal/cluster"
	"github.com/jmcastellanojimenez/ekscompose/internal/graph"
	"github.com/jmcastellanojimenez/ekscompose/internal/naming"
	"github.com/jmcastellanojimenez/ekscompose/internal/nodegroup"
	"github.com/jmcastellanojimenez/ekscompose/pkg/types"
)

const (
	// MinSize is the minimum size of every node group
	MinSize = 1

	// ClusterServiceCIDR is the Kubernetes service network of every cluster
	ClusterServiceCIDR = "172.20.0.0/16"

	// AuthenticationMode is the EKS access mode of every cluster
	AuthenticationMode = "API_AND_CONFIG_MAP"

	// CiliumTaintKey keeps workloads off a node until the Cilium agent is ready
	CiliumTaintKey = "node.cilium.io/agent-not-ready"
)

// Outputs referenced by dependent nodes
const (
	OutputClusterEndpoint = "cluster_endpoint"
	OutputClusterVersion  = "cluster_version"
	OutputOIDCProviderArn = "oidc_provider_arn"
	OutputKeyName         = "key_name"
)

// preBootstrapUserData switches node bootstrap to containerd and raises max pods
const preBootstrapUserData = `#!/bin/bash
set -ex
cat <<-EOF > /etc/profile.d/bootstrap.sh
export CONTAINER_RUNTIME="containerd"
export USE_MAX_PODS=false
export KUBELET_EXTRA_ARGS="--max-pods=110"
EOF
# Source extra environment variables in bootstrap script
sed -i '/^set -o errexit/a\\nsource /etc/profile.d/bootstrap.sh' /etc/eks/bootstrap.sh
`

// Taint is a node group scheduling taint
type Taint struct {
	Key    string               `json:"key" yaml:"key"`
	Value  string               `json:"value" yaml:"value"`
	Effect ekstypes.TaintEffect `json:"effect" yaml:"effect"`
}

// BootstrapVariables are passed to the bootstrap job
type BootstrapVariables struct {
	ClusterName string    `json:"cluster_name" yaml:"cluster_name"`
	Env         string    `json:"env" yaml:"env"`
	Cloud       string    `json:"cloud" yaml:"cloud"`
	Region      string    `json:"region" yaml:"region"`
	ClusterURL  graph.Ref `json:"cluster_url" yaml:"cluster_url"`
	AWSAccount  string    `json:"aws_account" yaml:"aws_account"`
}

// BootstrapConfig configures the post-creation bootstrap job
type BootstrapConfig struct {
	Script           string
	AWXBaseURL       string
	JobTemplateID    int
	WaitTimeoutTries int
}

// DefaultBootstrapConfig returns the bootstrap configuration used when none is given
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Script:           "scripts/callAwx.sh",
		AWXBaseURL:       "ansible-awx.platform-staging.internal",
		JobTemplateID:    779,
		WaitTimeoutTries: 100,
	}
}

// Input holds everything needed to build the graph of one project
type Input struct {
	ClusterID   string
	Environment types.Environment
	Account     string
	Region      string
	Project     cluster.Project
	SubnetIDs   []string
	PublicKey   string

	// ProjectCount is the number of projects in the cluster file. It selects
	// the EKS cluster naming scheme; zero is treated as one.
	ProjectCount int
}

// EKSName returns the EKS cluster name of the project
func (in Input) EKSName() string {
	return naming.EKSCluster(in.ClusterID, in.Project.Name, in.ProjectCount)
}

// Builder builds project resource graphs
type Builder struct {
	bootstrap BootstrapConfig
}

// NewBuilder creates a new graph builder
func NewBuilder(bootstrap BootstrapConfig) *Builder {
	return &Builder{
		bootstrap: bootstrap,
	}
}

// Build validates every node pool of the project and returns its sealed
// resource graph. No node is allocated when any pool is invalid.
func (b *Builder) Build(in Input) (*graph.Graph, error) {
	project := in.Project

	if result := nodegroup.ValidateAll(project.NodeGroups); result.HasErrors() {
		return nil, fmt.Errorf("validate project %s: %w", project.Name, result.Err())
	}

	if err := in.check(); err != nil {
		return nil, fmt.Errorf("build project %s: %w", project.Name, err)
	}

	g := graph.New(project.Name)

	clusterNode, err := g.Add(graph.Node{
		Name:       naming.Cluster(in.ClusterID, project.Name),
		Kind:       types.ResourceKindCluster,
		Properties: b.clusterProperties(in),
	})
	if err != nil {
		return nil, fmt.Errorf("add cluster: %w", err)
	}

	keyPair, err := g.Add(graph.Node{
		Name: naming.KeyPair(in.ClusterID, project.Name),
		Kind: types.ResourceKindSupportResource,
		Properties: graph.Properties{
			"type":      "aws_key_pair",
			"keyName":   naming.KeyName(in.ClusterID, project.Name),
			"publicKey": in.PublicKey,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("add key pair: %w", err)
	}

	nodeGroups := make([]string, 0, len(project.NodeGroups))
	for i, ng := range project.NodeGroups {
		node, err := g.Add(graph.Node{
			Name:       naming.NodeGroup(in.ClusterID, project.Name, i),
			Kind:       types.ResourceKindNodeGroup,
			Properties: b.nodeGroupProperties(in, ng, keyPair.Name),
			DependsOn:  []string{clusterNode.Name, keyPair.Name},
		})
		if err != nil {
			return nil, fmt.Errorf("add node group %s: %w", ng.NodeName, err)
		}
		nodeGroups = append(nodeGroups, node.Name)
	}

	bootstrap, err := g.Add(graph.Node{
		Name:       naming.Bootstrap(in.ClusterID, project.Name),
		Kind:       types.ResourceKindBootstrap,
		Properties: b.bootstrapProperties(in, clusterNode.Name),
		DependsOn:  []string{clusterNode.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("add bootstrap: %w", err)
	}

	spec, err := addons.Resolve(project.InstallCilium, addons.Refs{
		Cluster:    clusterNode.Name,
		NodeGroups: nodeGroups,
		Bootstrap:  bootstrap.Name,
	})
	if err != nil {
		return nil, err
	}

	if _, err := g.Add(graph.Node{
		Name: naming.AddonSet(in.ClusterID, project.Name),
		Kind: types.ResourceKindAddonSet,
		Properties: graph.Properties{
			"clusterName":     in.EKSName(),
			"clusterEndpoint": graph.RefTo(clusterNode.Name, OutputClusterEndpoint),
			"clusterVersion":  graph.RefTo(clusterNode.Name, OutputClusterVersion),
			"oidcProviderArn": graph.RefTo(clusterNode.Name, OutputOIDCProviderArn),
			"eksAddons":       spec.Map(),
		},
		DependsOn: spec.DependsOn,
	}); err != nil {
		return nil, fmt.Errorf("add addon set: %w", err)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.Seal()

	return g, nil
}

func (in Input) check() error {
	switch {
	case in.ClusterID == "":
		return fmt.Errorf("cluster identifier is required")
	case in.Project.Name == "":
		return fmt.Errorf("project name is required")
	case len(in.SubnetIDs) == 0:
		return fmt.Errorf("no private subnets found in VPC %s", in.Project.VpcID)
	case in.PublicKey == "":
		return fmt.Errorf("node SSH public key is required")
	}
	return nil
}

func (b *Builder) clusterProperties(in Input) graph.Properties {
	return graph.Properties{
		"authenticationMode":                   AuthenticationMode,
		"clusterName":                          in.EKSName(),
		"clusterVersion":                       in.Project.K8sVersion,
		"clusterEndpointPrivateAccess":         true,
		"clusterEndpointPublicAccess":          true,
		"enableClusterCreatorAdminPermissions": true,
		"vpcId":                                in.Project.VpcID,
		"subnetIds":                            in.SubnetIDs,
		"tags": types.Tags{
			"environment": string(in.Environment),
			"project":     in.Project.Name,
		},
	}
}

func (b *Builder) nodeGroupProperties(in Input, ng cluster.NodeGroupConfig, keyPair string) graph.Properties {
	return graph.Properties{
		"clusterName":             in.EKSName(),
		"clusterVersion":          in.Project.K8sVersion,
		"subnetIds":               in.SubnetIDs,
		"name":                    ng.NodeName,
		"minSize":                 MinSize,
		"maxSize":                 ng.MaxNumberNodes,
		"desiredSize":             ng.DesireNumberNodes,
		"instanceTypes":           []string{nodegroup.InstanceType(ng.NodeSize)},
		"clusterServiceCidr":      ClusterServiceCIDR,
		"preBootstrapUserData":    preBootstrapUserData,
		"useCustomLaunchTemplate": false,
		"taints":                  Taints(in.Project.InstallCilium),
		"remoteAccess": map[string]graph.Ref{
			"ec2_ssh_key": graph.RefTo(keyPair, OutputKeyName),
		},
	}
}

func (b *Builder) bootstrapProperties(in Input, clusterNode string) graph.Properties {
	return graph.Properties{
		"type":             "null_resource",
		"script":           b.bootstrap.Script,
		"awxBaseURL":       b.bootstrap.AWXBaseURL,
		"jobTemplateID":    b.bootstrap.JobTemplateID,
		"waitTimeoutTries": b.bootstrap.WaitTimeoutTries,
		"variables": BootstrapVariables{
			ClusterName: in.EKSName(),
			Env:         string(in.Environment),
			Cloud:       "aws",
			Region:      in.Region,
			ClusterURL:  graph.RefTo(clusterNode, OutputClusterEndpoint),
			AWSAccount:  in.Account,
		},
	}
}

// Taints returns the node group taints for a networking mode
func Taints(installCilium bool) map[string]Taint {
	taints := map[string]Taint{}
	if installCilium {
		taints["cilium"] = Taint{
			Key:    CiliumTaintKey,
			Value:  "true",
			Effect: ekstypes.TaintEffectNoExecute,
		}
	}
	return taints
}
