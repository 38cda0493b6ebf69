// Package resolver drives a synthesis run: it loads the cluster configuration,
// classifies the environment, validates every node pool, resolves the VPC and
// secret inputs and builds one resource graph per project.
package resolver

import (
	"context"
	"fmt"
	"log"

	"github.com/jmcastellanojimenez/ekscompose/internal/backend"
	"github.com/jmcastellanojimenez/ekscompose/internal/builder"
	"github.com/jmcastellanojimenez/ekscompose/internal/cluster"
	"github.com/jmcastellanojimenez/ekscompose/internal/environment"
	"github.com/jmcastellanojimenez/ekscompose/internal/graph"
	"github.com/jmcastellanojimenez/ekscompose/internal/nodegroup"
	"github.com/jmcastellanojimenez/ekscompose/internal/render"
	"github.com/jmcastellanojimenez/ekscompose/internal/secrets"
	"github.com/jmcastellanojimenez/ekscompose/internal/vpc"
	"github.com/jmcastellanojimenez/ekscompose/pkg/types"
)

// Logger is the logging surface used by the resolver
type Logger interface {
	Printf(format string, v ...any)
}

// RunStore persists synthesis runs
type RunStore interface {
	Record(ctx context.Context, run *types.Run) error
	Latest(ctx context.Context, clusterID string) (*types.Run, error)
	UpdateStatus(ctx context.Context, id string, status types.RunStatus, message *string) error
}

// Dependencies are the external collaborators of a resolver.
// Runs, S3 and STS are optional.
type Dependencies struct {
	Subnets vpc.Lookup
	Secrets secrets.Store
	Runs    RunStore
	S3      backend.S3Client
	STS     backend.STSClient
	Logger  Logger
}

// ProjectGraph is the resource graph built for one project
type ProjectGraph struct {
	Project string
	Graph   *graph.Graph
}

// Synthesis is the result of resolving one cluster
type Synthesis struct {
	ClusterID   string
	Environment types.Environment
	Config      *cluster.ClusterConfig
	Graphs      []ProjectGraph
}

// Resolver resolves cluster configurations into resource graphs
type Resolver struct {
	settings Settings
	deps     Dependencies
	loader   *cluster.Loader
	builder  *builder.Builder
	renderer *render.Renderer

	env    types.Environment
	config *cluster.ClusterConfig
}

// New creates a new resolver
func New(settings Settings, deps Dependencies) *Resolver {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}

	return &Resolver{
		settings: settings,
		deps:     deps,
		loader:   cluster.NewLoader(settings.ConfigDir, cluster.WithStrictSizes(settings.StrictSizes)),
		builder:  builder.NewBuilder(settings.Bootstrap()),
		renderer: render.NewRenderer(render.DefaultModuleSources()),
	}
}

// Connect replaces the external collaborators. The logger is kept when deps
// carries none.
func (r *Resolver) Connect(deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = r.deps.Logger
	}
	r.deps = deps
}

// Load classifies the cluster and reads its configuration file. The file is
// read once per resolver; later calls return the same configuration.
func (r *Resolver) Load() (*cluster.ClusterConfig, error) {
	if r.config != nil {
		return r.config, nil
	}

	if err := r.settings.complete(); err != nil {
		return nil, err
	}
	clusterID := r.settings.Cluster

	env, err := environment.Classify(clusterID)
	if err != nil {
		return nil, err
	}

	r.deps.Logger.Printf("Loading config for cluster %s", clusterID)
	cfg, err := r.loader.Load(clusterID)
	if err != nil {
		return nil, err
	}
	r.logSummary(clusterID, env, cfg)

	r.env = env
	r.config = cfg
	return cfg, nil
}

// Resolve builds the resource graph of every project of the cluster.
// Every node pool of every project is validated before any graph is built,
// so a failure leaves no partial result.
func (r *Resolver) Resolve(ctx context.Context) (*Synthesis, error) {
	cfg, err := r.Load()
	if err != nil {
		return nil, err
	}
	clusterID, env := r.settings.Cluster, r.env

	for _, project := range cfg.Projects {
		if result := nodegroup.ValidateAll(project.NodeGroups); result.HasErrors() {
			return nil, fmt.Errorf("validate project %s: %w", project.Name, result.Err())
		}
	}

	if r.deps.Subnets == nil || r.deps.Secrets == nil {
		return nil, fmt.Errorf("resolve cluster %s: subnet lookup and secret store are required", clusterID)
	}

	publicKey, err := secrets.PublicKey(ctx, r.deps.Secrets, r.settings.SSHSecretPath, r.settings.SSHSecretField)
	if err != nil {
		return nil, fmt.Errorf("get node SSH public key: %w", err)
	}

	synthesis := &Synthesis{
		ClusterID:   clusterID,
		Environment: env,
		Config:      cfg,
		Graphs:      make([]ProjectGraph, 0, len(cfg.Projects)),
	}

	for _, project := range cfg.Projects {
		subnetIDs, err := r.deps.Subnets.PrivateSubnets(ctx, project.VpcID)
		if err != nil {
			return nil, fmt.Errorf("look up subnets of project %s: %w", project.Name, err)
		}

		g, err := r.builder.Build(builder.Input{
			ClusterID:   clusterID,
			Environment: env,
			Account:     cfg.Account,
			Region:      cfg.Region,
			Project:     project,
			SubnetIDs:   subnetIDs,
			PublicKey:   publicKey,

			ProjectCount: len(cfg.Projects),
		})
		if err != nil {
			return nil, err
		}

		synthesis.Graphs = append(synthesis.Graphs, ProjectGraph{Project: project.Name, Graph: g})
		r.deps.Logger.Printf("Built graph for project %s: %d resources", project.Name, g.Len())
	}

	return synthesis, nil
}

func (r *Resolver) logSummary(clusterID string, env types.Environment, cfg *cluster.ClusterConfig) {
	logf := r.deps.Logger.Printf

	logf("Config loaded:")
	logf("Stack Name: %s", cfg.StackName)
	logf("Account: %s", cfg.Account)
	logf("Region: %s", cfg.Region)
	logf("Tags:")
	logf("  Environment: %s", cfg.Tags.Environment)
	logf("  Project: %s", cfg.Tags.Project)
	logf("Projects:")
	for _, project := range cfg.Projects {
		logf("- Project: %s", project.Name)
		logf("    VPC ID: %s", project.VpcID)
		logf("    Kubernetes Version: %s", project.K8sVersion)
		logf("    Cluster Name: %s", clusterID)
		logf("    Environment: %s", env)
		for _, ng := range project.NodeGroups {
			logf("        Node Name: %s", ng.NodeName)
			logf("        Node Size: %s", ng.NodeSize)
			logf("        Max number of nodes: %d", ng.MaxNumberNodes)
			logf("        Desire number of nodes: %d", ng.DesireNumberNodes)
		}
	}
}
