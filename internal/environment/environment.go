// Package environment derives the environment of a cluster from its identifier.
//
// Identifiers prefixed with "np-" or "lab-" are non-production and every other
// identifier is production.
package environment

import (
	"strings"

	"github.com/jmcastellanojimenez/ekscompose/internal/cluster"
	"github.com/jmcastellanojimenez/ekscompose/pkg/types"
)

const (
	PrefixNonProd = "np-"
	PrefixLab     = "lab-"
)

// Classify returns the environment for a cluster identifier
func Classify(clusterID string) (types.Environment, error) {
	if clusterID == "" {
		return "", cluster.NewConfigurationError("CLUSTER", "cluster identifier is required", nil)
	}

	if strings.HasPrefix(clusterID, PrefixNonProd) || strings.HasPrefix(clusterID, PrefixLab) {
		return types.EnvironmentNonProduction, nil
	}

	return types.EnvironmentProduction, nil
}
