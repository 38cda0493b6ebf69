package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/jmcastellanojimenez/ekscompose/internal/backend"
	"github.com/jmcastellanojimenez/ekscompose/internal/engine"
	"github.com/jmcastellanojimenez/ekscompose/internal/resolver"
	"github.com/jmcastellanojimenez/ekscompose/internal/secrets"
	"github.com/jmcastellanojimenez/ekscompose/internal/store"
	"github.com/jmcastellanojimenez/ekscompose/internal/vpc"
)

type mode int

const (
	modeSynth mode = iota
	modePlan
	modeApply
)

// run loads settings, wires the AWS collaborators and runs the resolver
func run(ctx context.Context, m mode) error {
	if ctx == nil {
		ctx = context.Background()
	}

	settings, err := resolver.LoadSettings()
	if err != nil {
		return err
	}

	r := resolver.New(settings, resolver.Dependencies{Logger: log.Default()})

	// AWS clients are pinned to the region of the cluster file
	clusterCfg, err := r.Load()
	if err != nil {
		return err
	}

	awsCfg, err := backend.LoadAWSConfig(ctx, clusterCfg.Region)
	if err != nil {
		return err
	}

	secretStore, err := secrets.Open(settings.SecretBackend, awsCfg)
	if err != nil {
		return err
	}

	deps := resolver.Dependencies{
		Subnets: vpc.NewFromConfig(awsCfg),
		Secrets: secretStore,
		Logger:  log.Default(),
	}

	if settings.DatabaseURL != "" {
		log.Println("Connecting to database...")
		st, err := store.Open(ctx, settings.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}
		defer st.Close()
		deps.Runs = st.Runs
	}

	if m != modeSynth {
		deps.S3 = s3.NewFromConfig(awsCfg)
		deps.STS = sts.NewFromConfig(awsCfg)
	}

	r.Connect(deps)

	synthesis, err := r.Resolve(ctx)
	if err != nil {
		return err
	}

	runRecord, err := r.Emit(ctx, synthesis)
	if err != nil {
		return err
	}
	log.Printf("Synthesized run %s (digest %s)", runRecord.ID, runRecord.Digest)

	if m == modeSynth {
		return nil
	}

	tf := engine.NewTerraform(engine.WithBinary(settings.TerraformBinary))
	return r.Realize(ctx, synthesis, runRecord, tf, m == modeApply)
}
