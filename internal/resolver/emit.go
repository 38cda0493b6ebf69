package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmcastellanojimenez/ekscompose/internal/backend"
	"github.com/jmcastellanojimenez/ekscompose/internal/graph"
	"github.com/jmcastellanojimenez/ekscompose/internal/render"
	"github.com/jmcastellanojimenez/ekscompose/internal/store"
	"github.com/jmcastellanojimenez/ekscompose/pkg/types"
)

const (
	// StackFile is the Terraform JSON configuration of a cluster
	StackFile = "cdk.tf.json"

	// ManifestFile is the YAML manifest of the resource graphs
	ManifestFile = "manifest.yaml"

	// PlanFile is the saved plan inside a stack directory
	PlanFile = "tfplan"
)

// Engine realizes a synthesized stack
type Engine interface {
	Init(ctx context.Context, workDir string) (string, error)
	Plan(ctx context.Context, workDir, planFile string) (string, error)
	Apply(ctx context.Context, workDir, planFile string) (string, error)
}

// StackDir returns the directory a cluster stack is written to
func (r *Resolver) StackDir(clusterID string) string {
	return filepath.Join(r.settings.OutputDir, "stacks", clusterID)
}

// Backend returns the state backend of a synthesis
func (r *Resolver) Backend(s *Synthesis) backend.S3Backend {
	return backend.New(r.settings.StateBucket, r.settings.StateLockTable, s.Config.Region, s.ClusterID)
}

// Emit renders the graphs of a synthesis, writes them to the stack
// directory and records the run
func (r *Resolver) Emit(ctx context.Context, s *Synthesis) (*types.Run, error) {
	graphs := make([]*graph.Graph, len(s.Graphs))
	projects := make([]string, len(s.Graphs))
	for i, pg := range s.Graphs {
		graphs[i] = pg.Graph
		projects[i] = pg.Project
	}

	doc, err := r.renderer.Terraform(render.Stack{
		Region:  s.Config.Region,
		Backend: r.Backend(s),
		Graphs:  graphs,
	})
	if err != nil {
		return nil, fmt.Errorf("render terraform: %w", err)
	}

	manifest, err := r.renderer.Manifest(s.ClusterID, graphs)
	if err != nil {
		return nil, fmt.Errorf("render manifest: %w", err)
	}

	digest, err := digestOf(graphs)
	if err != nil {
		return nil, err
	}

	dir := r.StackDir(s.ClusterID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create stack directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, StackFile), doc, 0o644); err != nil {
		return nil, fmt.Errorf("write stack: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), manifest, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	r.deps.Logger.Printf("Wrote stack for cluster %s to %s", s.ClusterID, dir)

	run := &types.Run{
		ID:          types.GenerateRunID(),
		ClusterID:   s.ClusterID,
		Environment: string(s.Environment),
		Projects:    projects,
		Digest:      digest,
		OutputDir:   dir,
		Status:      types.RunStatusSynthesized,
	}

	if r.deps.Runs != nil {
		previous, err := r.deps.Runs.Latest(ctx, s.ClusterID)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("get latest run: %w", err)
		case previous.Digest == digest:
			r.deps.Logger.Printf("Graph unchanged since run %s", previous.ID)
		default:
			r.deps.Logger.Printf("Graph changed since run %s", previous.ID)
		}

		if err := r.deps.Runs.Record(ctx, run); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}

	return run, nil
}

// Realize checks the state backend and runs the engine on an emitted stack.
// The plan is applied only when apply is set.
func (r *Resolver) Realize(ctx context.Context, s *Synthesis, run *types.Run, engine Engine, apply bool) error {
	if err := r.preflight(ctx, s); err != nil {
		return r.finish(ctx, run, types.RunStatusFailed, err)
	}

	r.deps.Logger.Printf("Initializing stack %s", run.OutputDir)
	if _, err := engine.Init(ctx, run.OutputDir); err != nil {
		return r.finish(ctx, run, types.RunStatusFailed, err)
	}

	r.deps.Logger.Printf("Planning stack %s", run.OutputDir)
	if _, err := engine.Plan(ctx, run.OutputDir, PlanFile); err != nil {
		return r.finish(ctx, run, types.RunStatusFailed, err)
	}
	if !apply {
		return r.finish(ctx, run, types.RunStatusPlanned, nil)
	}

	r.deps.Logger.Printf("Applying stack %s", run.OutputDir)
	if _, err := engine.Apply(ctx, run.OutputDir, PlanFile); err != nil {
		return r.finish(ctx, run, types.RunStatusFailed, err)
	}
	return r.finish(ctx, run, types.RunStatusApplied, nil)
}

func (r *Resolver) preflight(ctx context.Context, s *Synthesis) error {
	if r.deps.STS != nil {
		arn, err := backend.CheckAccount(ctx, r.deps.STS, s.Config.Account)
		if err != nil {
			return err
		}
		r.deps.Logger.Printf("Using AWS identity %s", arn)
	}

	if r.deps.S3 != nil {
		if err := backend.VerifyBucket(ctx, r.deps.S3, r.Backend(s)); err != nil {
			return err
		}
	}
	return nil
}

// finish updates the run status and returns cause
func (r *Resolver) finish(ctx context.Context, run *types.Run, status types.RunStatus, cause error) error {
	run.Status = status

	var message *string
	if cause != nil {
		msg := cause.Error()
		message = &msg
		run.Message = message
	}

	if r.deps.Runs != nil {
		if err := r.deps.Runs.UpdateStatus(ctx, run.ID, status, message); err != nil {
			r.deps.Logger.Printf("Failed to update run %s: %v", run.ID, err)
		}
	}

	return cause
}

// digestOf combines the digests of graphs in order
func digestOf(graphs []*graph.Graph) (string, error) {
	h := sha256.New()
	for _, g := range graphs {
		d, err := g.Digest()
		if err != nil {
			return "", fmt.Errorf("digest graph %s: %w", g.Name(), err)
		}
		h.Write([]byte(d))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
