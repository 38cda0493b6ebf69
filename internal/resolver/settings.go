package resolver

import (
	"github.com/kelseyhightower/envconfig"

	"github.com/jmcastellanojimenez/ekscompose/internal/builder"
	"github.com/jmcastellanojimenez/ekscompose/internal/cluster"
	"github.com/jmcastellanojimenez/ekscompose/internal/naming"
	"github.com/jmcastellanojimenez/ekscompose/internal/secrets"
)

// Settings holds the process configuration read from the environment
type Settings struct {
	Cluster             string `envconfig:"CLUSTER"`
	ConfigDir           string `envconfig:"CONFIG_DIR" default:"config"`
	OutputDir           string `envconfig:"OUTPUT_DIR" default:"cdktf.out"`
	StateBucket         string `envconfig:"STATE_BUCKET" default:"tf-bucket-np-alpha"`
	StateLockTable      string `envconfig:"STATE_LOCK_TABLE" default:"tf-lock-table"`
	SecretBackend       string `envconfig:"SECRET_BACKEND" default:"vault"`
	SSHSecretPath       string `envconfig:"SSH_SECRET_PATH"`
	SSHSecretField      string `envconfig:"SSH_SECRET_FIELD" default:"id_rsa.pub"`
	BootstrapScript     string `envconfig:"BOOTSTRAP_SCRIPT" default:"scripts/callAwx.sh"`
	AWXBaseURL          string `envconfig:"AWX_BASE_URL" default:"ansible-awx.platform-staging.internal"`
	AWXJobTemplateID    int    `envconfig:"AWX_JOB_TEMPLATE_ID" default:"779"`
	AWXWaitTimeoutTries int    `envconfig:"AWX_WAIT_TIMEOUT_TRIES" default:"100"`
	StrictSizes         bool   `envconfig:"STRICT_SIZES" default:"false"`
	DatabaseURL         string `envconfig:"DATABASE_URL"`
	TerraformBinary     string `envconfig:"TERRAFORM_BINARY" default:"terraform"`
}

// LoadSettings reads settings from the process environment.
// A missing cluster identifier is a ConfigurationError.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return Settings{}, cluster.NewConfigurationError("environment", "read settings", err)
	}

	if err := s.complete(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// complete checks required values and fills values derived from the cluster identifier
func (s *Settings) complete() error {
	if s.Cluster == "" {
		return cluster.NewConfigurationError("CLUSTER", "cluster identifier is required", nil)
	}
	switch s.SecretBackend {
	case "", secrets.BackendVault, secrets.BackendSecretsManager:
	default:
		return cluster.NewConfigurationError("SECRET_BACKEND", "must be vault or secretsmanager", nil)
	}
	if s.SSHSecretPath == "" {
		s.SSHSecretPath = naming.SSHSecretPath(s.Cluster)
	}
	return nil
}

// Bootstrap returns the bootstrap job configuration
func (s Settings) Bootstrap() builder.BootstrapConfig {
	return builder.BootstrapConfig{
		Script:           s.BootstrapScript,
		AWXBaseURL:       s.AWXBaseURL,
		JobTemplateID:    s.AWXJobTemplateID,
		WaitTimeoutTries: s.AWXWaitTimeoutTries,
	}
}
