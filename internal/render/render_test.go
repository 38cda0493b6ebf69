package render_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmcastellanojimenez/ekscompose/internal/backend"
	"github.com/jmcastellanojimenez/ekscompose/internal/builder"
	"github.com/jmcastellanojimenez/ekscompose/internal/cluster"
	"github.com/jmcastellanojimenez/ekscompose/internal/graph"
	"github.com/jmcastellanojimenez/ekscompose/internal/render"
	"github.com/jmcastellanojimenez/ekscompose/pkg/types"
)

const clusterID = "np-alpha-eks-02"

func projectGraph(t *testing.T, name string, installCilium bool) *graph.Graph {
	t.Helper()

	g, err := builder.NewBuilder(builder.DefaultBootstrapConfig()).Build(builder.Input{
		ClusterID:   clusterID,
		Environment: types.EnvironmentNonProduction,
		Account:     "123456789012",
		Region:      "eu-central-1",
		Project: cluster.Project{
			Name: name,
			ProjectConfig: cluster.ProjectConfig{
				VpcID:         "vpc-0a1b2c3d4e5f60718",
				K8sVersion:    "1.30",
				InstallCilium: installCilium,
				NodeGroups: []cluster.NodeGroupConfig{
					{NodeName: "system", NodeSize: types.SizeS, MaxNumberNodes: 3, DesireNumberNodes: 2},
				},
			},
		},
		SubnetIDs: []string{"subnet-a", "subnet-b"},
		PublicKey: "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIFakeKeyForTests user@example.com",
	})
	require.NoError(t, err)
	return g
}

func stack(graphs ...*graph.Graph) render.Stack {
	return render.Stack{
		Region:  "eu-central-1",
		Backend: backend.New("tf-bucket-np-alpha", "tf-lock-table", "eu-central-1", clusterID),
		Graphs:  graphs,
	}
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestTerraform(t *testing.T) {
	r := render.NewRenderer(render.DefaultModuleSources())

	data, err := r.Terraform(stack(projectGraph(t, "payments", true)))
	require.NoError(t, err)
	doc := decode(t, data)

	t.Run("backend", func(t *testing.T) {
		s3 := doc["terraform"].(map[string]any)["backend"].(map[string]any)["s3"].(map[string]any)
		assert.Equal(t, "tf-bucket-np-alpha", s3["bucket"])
		assert.Equal(t, "eks-cluster-cdktf/np-alpha-eks-02.tfstate", s3["key"])
		assert.Equal(t, "tf-lock-table", s3["dynamodb_table"])
	})

	modules := doc["module"].(map[string]any)
	resources := doc["resource"].(map[string]any)

	t.Run("cluster module", func(t *testing.T) {
		cl := modules["eks-np-alpha-eks-02-payments"].(map[string]any)
		assert.Equal(t, "terraform-aws-modules/eks/aws", cl["source"])
		assert.Equal(t, "API_AND_CONFIG_MAP", cl["authentication_mode"])
		assert.Equal(t, "1.30", cl["cluster_version"])
		assert.NotContains(t, cl, "depends_on")
	})

	t.Run("node group module", func(t *testing.T) {
		ng := modules["nodegroup-np-alpha-eks-02-payments-0"].(map[string]any)
		assert.Equal(t, []any{"t3.medium"}, ng["instance_types"])
		assert.Equal(t, []any{
			"module.eks-np-alpha-eks-02-payments",
			"aws_key_pair.ssh-keypair-np-alpha-eks-02-payments",
		}, ng["depends_on"])
		assert.Equal(t, map[string]any{
			"ec2_ssh_key": "${aws_key_pair.ssh-keypair-np-alpha-eks-02-payments.key_name}",
		}, ng["remote_access"])

		taint := ng["taints"].(map[string]any)["cilium"].(map[string]any)
		assert.Equal(t, "NO_EXECUTE", taint["effect"])
	})

	t.Run("addon module", func(t *testing.T) {
		ad := modules["eksaddons-np-alpha-eks-02-payments"].(map[string]any)
		assert.Equal(t, "${module.eks-np-alpha-eks-02-payments.cluster_endpoint}", ad["cluster_endpoint"])
		assert.Contains(t, ad["depends_on"], "null_resource.bootstrap-np-alpha-eks-02-payments")
		assert.Contains(t, ad["eks_addons"], "coredns")
	})

	t.Run("key pair resource", func(t *testing.T) {
		kp := resources["aws_key_pair"].(map[string]any)["ssh-keypair-np-alpha-eks-02-payments"].(map[string]any)
		assert.Equal(t, "np-alpha-eks-02-payments-eks-keypair", kp["key_name"])
		assert.NotContains(t, kp, "type")
	})

	t.Run("bootstrap resource", func(t *testing.T) {
		bs := resources["null_resource"].(map[string]any)["bootstrap-np-alpha-eks-02-payments"].(map[string]any)
		provisioner := bs["provisioner"].([]any)[0].(map[string]any)
		command := provisioner["local-exec"].(map[string]any)["command"].(string)

		assert.Contains(t, command, "AWX_JOB_TEMPLATE_ID=779")
		assert.Contains(t, command, "AWX_WAIT_TIMEOUT_TRIES=100")
		assert.Contains(t, command, "env=Non-Production")
		assert.Contains(t, command, "cloud=aws")
		assert.Contains(t, command, "cluster_url=${module.eks-np-alpha-eks-02-payments.cluster_endpoint}")
		assert.Equal(t, []any{"module.eks-np-alpha-eks-02-payments"}, bs["depends_on"])
	})
}

func TestTerraform_MultipleProjects(t *testing.T) {
	r := render.NewRenderer(render.DefaultModuleSources())

	data, err := r.Terraform(stack(projectGraph(t, "payments", false), projectGraph(t, "analytics", true)))
	require.NoError(t, err)

	modules := decode(t, data)["module"].(map[string]any)
	assert.Contains(t, modules, "eks-np-alpha-eks-02-payments")
	assert.Contains(t, modules, "eks-np-alpha-eks-02-analytics")
}

func TestTerraform_RejectsNameCollision(t *testing.T) {
	r := render.NewRenderer(render.DefaultModuleSources())

	_, err := r.Terraform(stack(projectGraph(t, "payments", false), projectGraph(t, "payments", false)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrDuplicateNode))
}

func TestTerraform_IsStable(t *testing.T) {
	r := render.NewRenderer(render.DefaultModuleSources())

	first, err := r.Terraform(stack(projectGraph(t, "payments", true)))
	require.NoError(t, err)
	second, err := r.Terraform(stack(projectGraph(t, "payments", true)))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestManifest(t *testing.T) {
	r := render.NewRenderer(render.DefaultModuleSources())
	g := projectGraph(t, "payments", false)

	data, err := r.Manifest(clusterID, []*graph.Graph{g})
	require.NoError(t, err)

	var manifest render.Manifest
	require.NoError(t, yaml.Unmarshal(data, &manifest))

	assert.Equal(t, clusterID, manifest.Cluster)
	require.Len(t, manifest.Graphs, 1)
	assert.Equal(t, "payments", manifest.Graphs[0].Project)
	assert.Len(t, manifest.Graphs[0].Nodes, g.Len())
	assert.True(t, strings.HasPrefix(manifest.Graphs[0].Order[0], "eks-"))

	digest, err := g.Digest()
	require.NoError(t, err)
	assert.Equal(t, digest, manifest.Graphs[0].Digest)
}
