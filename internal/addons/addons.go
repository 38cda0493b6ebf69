// Package addons selects the managed cluster addons of a project and the
// resources the addon set must wait for.
//
// The networking mode decides both the addon list and the dependencies: when
// Cilium is installed by the bootstrap step, the default CNI and kube-proxy
// addons are left out and the addon set waits for bootstrap, because addons
// cannot reconcile before the CNI is running.
package addons

import "fmt"

// Name identifies a managed addon
type Name string

const (
	CoreDNS          Name = "coredns"
	EBSCSIDriver     Name = "aws-ebs-csi-driver"
	PodIdentityAgent Name = "eks-pod-identity-agent"
	VPCCNI           Name = "vpc-cni"
	KubeProxy        Name = "kube-proxy"
)

// Options are the activation options of an addon
type Options struct {
	MostRecent bool `json:"most_recent,omitempty" yaml:"most_recent,omitempty"`
}

// Addon is a managed addon with its activation options
type Addon struct {
	Name    Name    `json:"name" yaml:"name"`
	Options Options `json:"options" yaml:"options"`
}

// Refs are the graph nodes an addon set may depend on
type Refs struct {
	Cluster    string
	NodeGroups []string
	Bootstrap  string
}

// Spec is the resolved addon set
type Spec struct {
	Addons    []Addon
	DependsOn []string
}

func coreDNS() Addon {
	return Addon{Name: CoreDNS, Options: Options{MostRecent: true}}
}

func ebsCSIDriver() Addon {
	return Addon{Name: EBSCSIDriver}
}

func podIdentityAgent() Addon {
	return Addon{Name: PodIdentityAgent, Options: Options{MostRecent: true}}
}

func vpcCNI() Addon {
	return Addon{Name: VPCCNI, Options: Options{MostRecent: true}}
}

func kubeProxy() Addon {
	return Addon{Name: KubeProxy, Options: Options{MostRecent: true}}
}

// Resolve returns the addon set for a networking mode
func Resolve(installCilium bool, refs Refs) (Spec, error) {
	if refs.Cluster == "" {
		return Spec{}, fmt.Errorf("resolve addons: cluster reference is required")
	}
	if len(refs.NodeGroups) == 0 {
		return Spec{}, fmt.Errorf("resolve addons: at least one node group reference is required")
	}

	spec := Spec{
		Addons: []Addon{coreDNS(), ebsCSIDriver(), podIdentityAgent()},
	}

	spec.DependsOn = append(spec.DependsOn, refs.Cluster)
	spec.DependsOn = append(spec.DependsOn, refs.NodeGroups...)

	if installCilium {
		if refs.Bootstrap == "" {
			return Spec{}, fmt.Errorf("resolve addons: bootstrap reference is required when Cilium is installed")
		}
		spec.DependsOn = append(spec.DependsOn, refs.Bootstrap)
		return spec, nil
	}

	spec.Addons = append(spec.Addons, vpcCNI(), kubeProxy())
	return spec, nil
}

// Names returns the addon names in order
func (s Spec) Names() []Name {
	names := make([]Name, len(s.Addons))
	for i, addon := range s.Addons {
		names[i] = addon.Name
	}
	return names
}

// Has reports whether the set contains an addon
func (s Spec) Has(name Name) bool {
	for _, addon := range s.Addons {
		if addon.Name == name {
			return true
		}
	}
	return false
}

// Map returns the addon set keyed by addon name, in the shape expected by
// the EKS addons module
func (s Spec) Map() map[string]Options {
	m := make(map[string]Options, len(s.Addons))
	for _, addon := range s.Addons {
		m[string(addon.Name)] = addon.Options
	}
	return m
}
