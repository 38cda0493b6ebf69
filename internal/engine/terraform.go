// Package engine drives the Terraform CLI against a synthesized stack.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// DefaultBinary is used when no binary is given
const DefaultBinary = "terraform"

// Terraform wraps the terraform CLI
type Terraform struct {
	binaryPath string
	timeout    time.Duration
}

// Option configures a Terraform wrapper
type Option func(*Terraform)

// WithBinary overrides the terraform binary
func WithBinary(path string) Option {
	return func(t *Terraform) {
		if path != "" {
			t.binaryPath = path
		}
	}
}

// WithTimeout overrides the per-command timeout
func WithTimeout(timeout time.Duration) Option {
	return func(t *Terraform) {
		t.timeout = timeout
	}
}

// NewTerraform creates a new terraform wrapper
func NewTerraform(opts ...Option) *Terraform {
	t := &Terraform{
		binaryPath: DefaultBinary,    // Assumes it's in PATH
		timeout:    60 * time.Minute, // EKS creation regularly takes 20+ minutes
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Init runs terraform init in the stack directory
func (t *Terraform) Init(ctx context.Context, workDir string) (string, error) {
	return t.run(ctx, workDir, "init", "-input=false", "-no-color")
}

// Plan runs terraform plan and writes the plan to planFile
func (t *Terraform) Plan(ctx context.Context, workDir, planFile string) (string, error) {
	return t.run(ctx, workDir, "plan", "-input=false", "-no-color", "-out="+planFile)
}

// Apply applies a saved plan
func (t *Terraform) Apply(ctx context.Context, workDir, planFile string) (string, error) {
	return t.run(ctx, workDir, "apply", "-input=false", "-no-color", "-auto-approve", planFile)
}

// Version returns the terraform version
func (t *Terraform) Version(ctx context.Context) (string, error) {
	return t.run(ctx, "", "version")
}

func (t *Terraform) run(ctx context.Context, workDir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.binaryPath, args...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.Env = append(os.Environ(),
		"TF_IN_AUTOMATION=1",
	)

	if err := cmd.Run(); err != nil {
		return stderr.String(), fmt.Errorf("terraform %s failed: %w\nStderr: %s", args[0], err, stderr.String())
	}

	return stdout.String(), nil
}
