// Package nodegroup validates node pool sizing and resolves node size tags
// to concrete instance types.
package nodegroup

import "github.com/jmcastellanojimenez/ekscompose/internal/cluster"

// Validate checks a single node pool. It has no side effects, so repeated
// calls with the same input return the same result.
func Validate(ng cluster.NodeGroupConfig) *Result {
	result := NewResult()

	if ng.DesireNumberNodes > ng.MaxNumberNodes {
		result.AddError(ValidationError{
			Pool:    ng.NodeName,
			Desired: ng.DesireNumberNodes,
			Max:     ng.MaxNumberNodes,
		})
	}

	return result
}

// ValidateAll checks every node pool of a project before any of them is
// declared. All pools are checked; errors are reported in declaration order.
func ValidateAll(pools []cluster.NodeGroupConfig) *Result {
	result := NewResult()

	for _, ng := range pools {
		for _, err := range Validate(ng).Errors {
			result.AddError(err)
		}
	}

	return result
}
