package addons_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcastellanojimenez/ekscompose/internal/addons"
)

func refs() addons.Refs {
	return addons.Refs{
		Cluster:    "cluster",
		NodeGroups: []string{"ng-0", "ng-1"},
		Bootstrap:  "bootstrap",
	}
}

func TestResolve(t *testing.T) {
	base := []addons.Name{addons.CoreDNS, addons.EBSCSIDriver, addons.PodIdentityAgent}

	t.Run("default CNI adds vpc-cni and kube-proxy", func(t *testing.T) {
		spec, err := addons.Resolve(false, refs())
		require.NoError(t, err)

		assert.Equal(t, append(base, addons.VPCCNI, addons.KubeProxy), spec.Names())
		assert.Equal(t, []string{"cluster", "ng-0", "ng-1"}, spec.DependsOn)
		assert.NotContains(t, spec.DependsOn, "bootstrap")
	})

	t.Run("cilium keeps the base set and waits for bootstrap", func(t *testing.T) {
		spec, err := addons.Resolve(true, refs())
		require.NoError(t, err)

		assert.Equal(t, base, spec.Names())
		assert.False(t, spec.Has(addons.VPCCNI))
		assert.False(t, spec.Has(addons.KubeProxy))
		assert.Equal(t, []string{"cluster", "ng-0", "ng-1", "bootstrap"}, spec.DependsOn)
	})

	t.Run("activation options", func(t *testing.T) {
		spec, err := addons.Resolve(false, refs())
		require.NoError(t, err)

		m := spec.Map()
		assert.Equal(t, addons.Options{MostRecent: true}, m["coredns"])
		assert.Equal(t, addons.Options{}, m["aws-ebs-csi-driver"])
		assert.Equal(t, addons.Options{MostRecent: true}, m["eks-pod-identity-agent"])
		assert.Equal(t, addons.Options{MostRecent: true}, m["vpc-cni"])
		assert.Equal(t, addons.Options{MostRecent: true}, m["kube-proxy"])
	})

	t.Run("bootstrap reference is ignored without cilium", func(t *testing.T) {
		r := refs()
		r.Bootstrap = ""
		_, err := addons.Resolve(false, r)
		assert.NoError(t, err)
	})

	t.Run("requires bootstrap reference with cilium", func(t *testing.T) {
		r := refs()
		r.Bootstrap = ""
		_, err := addons.Resolve(true, r)
		assert.Error(t, err)
	})

	t.Run("requires cluster and node groups", func(t *testing.T) {
		_, err := addons.Resolve(false, addons.Refs{NodeGroups: []string{"ng"}})
		assert.Error(t, err)

		_, err = addons.Resolve(false, addons.Refs{Cluster: "cluster"})
		assert.Error(t, err)
	})
}
