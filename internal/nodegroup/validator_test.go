package nodegroup_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcastellanojimenez/ekscompose/internal/cluster"
	"github.com/jmcastellanojimenez/ekscompose/internal/nodegroup"
)

func pool(name string, max, desired int) cluster.NodeGroupConfig {
	return cluster.NodeGroupConfig{
		NodeName:          name,
		NodeSize:          "M",
		MaxNumberNodes:    max,
		DesireNumberNodes: desired,
	}
}

func TestValidate(t *testing.T) {
	t.Run("accepts desired equal to max", func(t *testing.T) {
		result := nodegroup.Validate(pool("system", 3, 3))
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
		assert.NoError(t, result.Err())
	})

	t.Run("accepts desired below max", func(t *testing.T) {
		result := nodegroup.Validate(pool("system", 5, 1))
		assert.True(t, result.Valid)
	})

	t.Run("rejects desired above max", func(t *testing.T) {
		result := nodegroup.Validate(pool("batch", 5, 10))
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 1)

		first := result.First()
		require.NotNil(t, first)
		assert.Equal(t, "batch", first.Pool)
		assert.Equal(t, 10, first.Desired)
		assert.Equal(t, 5, first.Max)
		assert.Contains(t, first.Error(), "(10)")
		assert.Contains(t, first.Error(), "(5)")
	})

	t.Run("is idempotent", func(t *testing.T) {
		for _, ng := range []cluster.NodeGroupConfig{pool("a", 3, 2), pool("b", 2, 3)} {
			assert.Equal(t, nodegroup.Validate(ng), nodegroup.Validate(ng))
		}
	})
}

func TestValidateAll(t *testing.T) {
	t.Run("reports second pool of a project", func(t *testing.T) {
		result := nodegroup.ValidateAll([]cluster.NodeGroupConfig{
			pool("system", 3, 2),
			pool("batch", 5, 10),
		})
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, nodegroup.ValidationError{Pool: "batch", Desired: 10, Max: 5}, result.Errors[0])

		var vErr nodegroup.ValidationError
		require.True(t, errors.As(result.Err(), &vErr))
		assert.Equal(t, "batch", vErr.Pool)
	})

	t.Run("collects every failing pool in order", func(t *testing.T) {
		result := nodegroup.ValidateAll([]cluster.NodeGroupConfig{
			pool("a", 1, 2),
			pool("b", 3, 3),
			pool("c", 2, 7),
		})
		require.Len(t, result.Errors, 2)
		assert.Equal(t, "a", result.Errors[0].Pool)
		assert.Equal(t, "c", result.Errors[1].Pool)
	})

	t.Run("passes with no pools", func(t *testing.T) {
		assert.True(t, nodegroup.ValidateAll(nil).Valid)
	})
}
