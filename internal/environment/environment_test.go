package environment_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcastellanojimenez/ekscompose/internal/cluster"
	"github.com/jmcastellanojimenez/ekscompose/internal/environment"
	"github.com/jmcastellanojimenez/ekscompose/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		id   string
		want types.Environment
	}{
		{"np-alpha-eks-02", types.EnvironmentNonProduction},
		{"lab-sandbox-01", types.EnvironmentNonProduction},
		{"np-", types.EnvironmentNonProduction},
		{"prod-eks-01", types.EnvironmentProduction},
		{"alpha", types.EnvironmentProduction},
		{"NP-upper", types.EnvironmentProduction},
		{"xnp-alpha", types.EnvironmentProduction},
		{"lab", types.EnvironmentProduction},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := environment.Classify(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("empty identifier is a configuration error", func(t *testing.T) {
		_, err := environment.Classify("")
		require.Error(t, err)

		var cfgErr *cluster.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "CLUSTER", cfgErr.Field)
	})
}
