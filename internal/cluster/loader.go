package cluster

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jmcastellanojimenez/ekscompose/pkg/types"
)

// Config directories keyed by cluster identifier prefix
const (
	DirNonProd = "nonprod"
	DirSandbox = "sandbox"
	DirProd    = "prod"
)

// extensions are tried in order when locating a cluster file
var extensions = []string{".json", ".yaml", ".yml"}

// Loader loads cluster configurations from the config directory
type Loader struct {
	configDir   string
	strictSizes bool
	validate    *validator.Validate
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithStrictSizes makes unknown node size tags a configuration error
// instead of resolving them to the default instance type
func WithStrictSizes(strict bool) LoaderOption {
	return func(l *Loader) {
		l.strictSizes = strict
	}
}

// NewLoader creates a new cluster config loader
func NewLoader(configDir string, opts ...LoaderOption) *Loader {
	l := &Loader{
		configDir: configDir,
		validate:  validator.New(),
	}

	for _, opt := range opts {
		opt(l)
	}

	// Register custom validator for node size tags
	l.validate.RegisterValidation("nodesize", func(fl validator.FieldLevel) bool {
		if !l.strictSizes {
			return true
		}
		return types.Size(fl.Field().String()).Known()
	})

	return l
}

// ConfigDir returns the directory name holding the configuration for a cluster
func ConfigDir(clusterID string) string {
	switch {
	case strings.HasPrefix(clusterID, "np-"):
		return DirNonProd
	case strings.HasPrefix(clusterID, "lab-"):
		return DirSandbox
	default:
		return DirProd
	}
}

// Path returns the location of the configuration file for a cluster
func (l *Loader) Path(clusterID string) (string, error) {
	base := filepath.Join(l.configDir, ConfigDir(clusterID), clusterID)

	for _, ext := range extensions {
		filename := base + ext
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", NewConfigurationError("file", fmt.Sprintf("stat %s", filename), err)
		}
	}

	return "", NewConfigurationError("file", fmt.Sprintf("no configuration found at %s.json", base), fs.ErrNotExist)
}

// Load loads and validates the configuration for a cluster
func (l *Loader) Load(clusterID string) (*ClusterConfig, error) {
	if clusterID == "" {
		return nil, NewConfigurationError("CLUSTER", "cluster identifier is required", nil)
	}

	filename, err := l.Path(clusterID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, NewConfigurationError("file", fmt.Sprintf("read config file %s", filename), err)
	}

	cfg, err := l.Parse(data)
	if err != nil {
		return nil, NewConfigurationError("file", fmt.Sprintf("load config file %s", filename), err)
	}

	return cfg, nil
}

// Parse decodes and validates raw configuration data.
// JSON input is accepted as it is a subset of YAML.
func (l *Loader) Parse(data []byte) (*ClusterConfig, error) {
	var cfg ClusterConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates a cluster configuration against the schema
func (l *Loader) Validate(cfg *ClusterConfig) error {
	if err := l.validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Node pool names must be unique within a project
	for _, project := range cfg.Projects {
		seen := make(map[string]bool, len(project.NodeGroups))
		for _, ng := range project.NodeGroups {
			if seen[ng.NodeName] {
				return fmt.Errorf("project %s: duplicate node pool %s", project.Name, ng.NodeName)
			}
			seen[ng.NodeName] = true
		}
	}

	return nil
}
