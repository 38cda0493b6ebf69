package types

// Environment classifies a cluster by its naming convention
type Environment string

const (
	EnvironmentNonProduction Environment = "Non-Production"
	EnvironmentProduction    Environment = "Production"
)

// IsProduction reports whether the environment is production
func (e Environment) IsProduction() bool {
	return e == EnvironmentProduction
}

// ResourceKind identifies the kind of a declared resource in a graph
type ResourceKind string

const (
	ResourceKindCluster         ResourceKind = "Cluster"
	ResourceKindNodeGroup       ResourceKind = "NodeGroup"
	ResourceKindBootstrap       ResourceKind = "Bootstrap"
	ResourceKindAddonSet        ResourceKind = "AddonSet"
	ResourceKindSupportResource ResourceKind = "SupportResource"
)

// Valid reports whether k is one of the known resource kinds
func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceKindCluster, ResourceKindNodeGroup, ResourceKindBootstrap,
		ResourceKindAddonSet, ResourceKindSupportResource:
		return true
	}
	return false
}

// Tags is a map of key-value pairs attached to cloud resources
type Tags map[string]string

// RunStatus represents the outcome of a synthesis run
type RunStatus string

const (
	RunStatusSynthesized RunStatus = "SYNTHESIZED"
	RunStatusPlanned     RunStatus = "PLANNED"
	RunStatusApplied     RunStatus = "APPLIED"
	RunStatusFailed      RunStatus = "FAILED"
)
