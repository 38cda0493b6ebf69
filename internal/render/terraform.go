// Package render turns project resource graphs into the documents handed to
// the provisioning engine: a Terraform JSON configuration and a readable YAML
// manifest of the same graphs.
package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/jmcastellanojimenez/ekscompose/internal/backend"
	"github.com/jmcastellanojimenez/ekscompose/internal/graph"
	"github.com/jmcastellanojimenez/ekscompose/pkg/types"
)

// ModuleSources are the Terraform module sources of module-backed nodes
type ModuleSources struct {
	Cluster   string
	NodeGroup string
	AddonSet  string
}

// DefaultModuleSources returns the public registry modules used by default
func DefaultModuleSources() ModuleSources {
	return ModuleSources{
		Cluster:   "terraform-aws-modules/eks/aws",
		NodeGroup: "terraform-aws-modules/eks/aws//modules/eks-managed-node-group",
		AddonSet:  "aws-ia/eks-blueprints-addons/aws",
	}
}

// Stack is everything rendered into one Terraform configuration
type Stack struct {
	Region  string
	Backend backend.S3Backend
	Graphs  []*graph.Graph
}

// Renderer renders stacks to Terraform JSON
type Renderer struct {
	sources ModuleSources
}

// NewRenderer creates a new Terraform renderer
func NewRenderer(sources ModuleSources) *Renderer {
	return &Renderer{
		sources: sources,
	}
}

// Terraform renders a stack as a main.tf.json document
func (r *Renderer) Terraform(stack Stack) ([]byte, error) {
	modules := map[string]any{}
	resources := map[string]map[string]any{}

	addresses := map[string]string{}
	for _, g := range stack.Graphs {
		for _, node := range g.Nodes() {
			if _, exists := addresses[node.Name]; exists {
				return nil, fmt.Errorf("render %s: %w", node.Name, graph.ErrDuplicateNode)
			}
			addr, err := address(node)
			if err != nil {
				return nil, err
			}
			addresses[node.Name] = addr
		}
	}

	for _, g := range stack.Graphs {
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("render graph %s: %w", g.Name(), err)
		}

		for _, node := range g.Nodes() {
			body, err := r.body(node, addresses)
			if err != nil {
				return nil, fmt.Errorf("render %s: %w", node.Name, err)
			}

			if len(node.DependsOn) > 0 {
				deps := make([]string, len(node.DependsOn))
				for i, dep := range node.DependsOn {
					deps[i] = addresses[dep]
				}
				body["depends_on"] = deps
			}

			switch node.Kind {
			case types.ResourceKindCluster, types.ResourceKindNodeGroup, types.ResourceKindAddonSet:
				modules[node.Name] = body
			default:
				typ := resourceType(node)
				if resources[typ] == nil {
					resources[typ] = map[string]any{}
				}
				resources[typ][node.Name] = body
			}
		}
	}

	doc := map[string]any{
		"terraform": map[string]any{
			"backend": map[string]any{
				"s3": stack.Backend,
			},
			"required_providers": map[string]any{
				"aws":  map[string]string{"source": "hashicorp/aws"},
				"null": map[string]string{"source": "hashicorp/null"},
			},
		},
		"provider": map[string]any{
			"aws": []map[string]string{{"region": stack.Region}},
		},
	}
	if len(modules) > 0 {
		doc["module"] = modules
	}
	if len(resources) > 0 {
		doc["resource"] = resources
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal terraform document: %w", err)
	}

	return data, nil
}

// body converts node properties into Terraform arguments
func (r *Renderer) body(node graph.Node, addresses map[string]string) (map[string]any, error) {
	props, err := normalize(node.Properties)
	if err != nil {
		return nil, err
	}

	resolved, err := resolveRefs(props, addresses)
	if err != nil {
		return nil, err
	}
	args, _ := resolved.(map[string]any)
	if args == nil {
		args = map[string]any{}
	}

	switch node.Kind {
	case types.ResourceKindCluster:
		return moduleBody(r.sources.Cluster, args), nil
	case types.ResourceKindNodeGroup:
		return moduleBody(r.sources.NodeGroup, args), nil
	case types.ResourceKindAddonSet:
		return moduleBody(r.sources.AddonSet, args), nil
	case types.ResourceKindBootstrap:
		return bootstrapBody(args)
	default:
		delete(args, "type")
		return snakeKeys(args), nil
	}
}

func moduleBody(source string, args map[string]any) map[string]any {
	body := snakeKeys(args)
	body["source"] = source
	return body
}

// bootstrapBody renders the bootstrap step as a local-exec provisioner
func bootstrapBody(args map[string]any) (map[string]any, error) {
	vars, ok := args["variables"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("bootstrap variables are missing")
	}

	command := fmt.Sprintf("bash ${abspath(%q)} AWX_BASE_URL=%v AWX_JOB_TEMPLATE_ID=%v AWX_WAIT_TIMEOUT_TRIES=%v --variables %s",
		args["script"], args["awxBaseURL"], args["jobTemplateID"], args["waitTimeoutTries"],
		strings.Join([]string{
			fmt.Sprintf("cluster_name=%v", vars["cluster_name"]),
			fmt.Sprintf("env=%v", vars["env"]),
			fmt.Sprintf("cloud=%v", vars["cloud"]),
			fmt.Sprintf("region=%v", vars["region"]),
			fmt.Sprintf("cluster_url=%v", vars["cluster_url"]),
			fmt.Sprintf("aws_account=%v", vars["aws_account"]),
		}, " "))

	return map[string]any{
		"provisioner": []map[string]any{
			{"local-exec": map[string]any{"command": command}},
		},
	}, nil
}

// address returns the Terraform address of a node
func address(node graph.Node) (string, error) {
	switch node.Kind {
	case types.ResourceKindCluster, types.ResourceKindNodeGroup, types.ResourceKindAddonSet:
		return "module." + node.Name, nil
	case types.ResourceKindBootstrap, types.ResourceKindSupportResource:
		return resourceType(node) + "." + node.Name, nil
	}
	return "", fmt.Errorf("address of %s: unsupported kind %q", node.Name, node.Kind)
}

func resourceType(node graph.Node) string {
	if t, ok := node.Properties["type"].(string); ok && t != "" {
		return t
	}
	if node.Kind == types.ResourceKindBootstrap {
		return "null_resource"
	}
	return "terraform_data"
}

// normalize round-trips properties through JSON so typed values become maps,
// slices and scalars
func normalize(props graph.Properties) (any, error) {
	data, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}
	return out, nil
}

// resolveRefs replaces references with Terraform interpolations
func resolveRefs(value any, addresses map[string]string) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		if node, ok := v["$node"].(string); ok {
			output, _ := v["$output"].(string)
			addr, exists := addresses[node]
			if !exists {
				return nil, fmt.Errorf("reference to unknown node %s", node)
			}
			return fmt.Sprintf("${%s.%s}", addr, output), nil
		}

		out := make(map[string]any, len(v))
		for key, item := range v {
			resolved, err := resolveRefs(item, addresses)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := resolveRefs(item, addresses)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

// snakeKeys converts the top-level camelCase argument names to snake_case
func snakeKeys(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for key, value := range args {
		out[snake(key)] = value
	}
	return out
}

func snake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// Start a new word unless inside an acronym
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
