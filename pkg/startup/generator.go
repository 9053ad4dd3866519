// Package startup builds the guest payload handed to the instance at creation
// time: a shell startup script (or an equivalent #cloud-config document) that
// updates the package index and installs Docker Engine and Nginx.
package startup

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"text/template"

	"github.com/Bibi40k/gce-web-bootstrap/configs"
	"gopkg.in/yaml.v3"
)

//go:embed templates/startup.sh.tmpl
var startupScriptTemplate string

//go:embed templates/cloud-config.yaml.tmpl
var cloudConfigTemplate string

const (
	FormatScript      = "script"
	FormatCloudConfig = "cloud-config"
)

// Generator renders guest payloads from embedded templates.
type Generator struct {
	scriptTmpl      *template.Template
	cloudConfigTmpl *template.Template
}

// Input contains data for payload generation.
type Input struct {
	Format         string   // "script" (default) or "cloud-config"
	MarkerName     string   // first-boot marker file under /var/lib (default: instance name)
	Packages       []string // base packages installed before Docker, e.g. curl
	DockerPackages []string // e.g. ["docker-ce", "containerd.io"]
	DockerRepo     string   // apt repository base URL
	DockerUsers    []string // guest users added to the docker group
	WebPackage     string   // e.g. "nginx"
	ExtraCommands  []string // appended verbatim after the web server install
}

// packageNameRE bounds package and user names to what apt and usermod accept,
// which also keeps them inert inside the rendered shell.
var packageNameRE = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.+_-]*$`)

// repoURLRE limits the repository URL to characters that need no quoting in
// the rendered shell and YAML.
var repoURLRE = regexp.MustCompile(`^[A-Za-z0-9._~:/%-]+$`)

// NewGenerator creates a new payload generator with embedded templates.
func NewGenerator() (*Generator, error) {
	scriptTmpl, err := template.New("startup-script").Parse(startupScriptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse startup-script template: %w", err)
	}

	cloudConfigTmpl, err := template.New("cloud-config").Parse(cloudConfigTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cloud-config template: %w", err)
	}

	return &Generator{
		scriptTmpl:      scriptTmpl,
		cloudConfigTmpl: cloudConfigTmpl,
	}, nil
}

// SetDefaults fills empty fields from configs/defaults.yaml.
func (in *Input) SetDefaults() {
	d := configs.Defaults.Startup
	if in.Format == "" {
		in.Format = d.Format
	}
	if in.MarkerName == "" {
		in.MarkerName = "gce-web-bootstrap"
	}
	if len(in.Packages) == 0 {
		in.Packages = d.Packages
	}
	if len(in.DockerPackages) == 0 {
		in.DockerPackages = d.DockerPackages
	}
	if in.DockerRepo == "" {
		in.DockerRepo = d.DockerRepo
	}
	if len(in.DockerUsers) == 0 {
		in.DockerUsers = d.DockerUsers
	}
	if in.WebPackage == "" {
		in.WebPackage = d.WebPackage
	}
}

// Validate checks the input before rendering.
func (in *Input) Validate() error {
	if in.Format != FormatScript && in.Format != FormatCloudConfig {
		return fmt.Errorf("unsupported payload format %q (supported: %s, %s)", in.Format, FormatScript, FormatCloudConfig)
	}
	if !packageNameRE.MatchString(in.MarkerName) {
		return fmt.Errorf("invalid marker name %q", in.MarkerName)
	}
	if len(in.DockerPackages) == 0 {
		return fmt.Errorf("at least one docker package is required")
	}
	if err := validateRepoURL(in.DockerRepo); err != nil {
		return err
	}
	names := make([]string, 0, len(in.Packages)+len(in.DockerPackages)+1)
	names = append(names, in.Packages...)
	names = append(names, in.DockerPackages...)
	names = append(names, in.WebPackage)
	for _, n := range names {
		if !packageNameRE.MatchString(n) {
			return fmt.Errorf("invalid package name %q", n)
		}
	}
	for _, u := range in.DockerUsers {
		if !packageNameRE.MatchString(u) {
			return fmt.Errorf("invalid docker user %q", u)
		}
	}
	return nil
}

func validateRepoURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("docker repository must be an https URL (got %q)", raw)
	}
	if u.User != nil || u.RawQuery != "" || u.Fragment != "" || !repoURLRE.MatchString(raw) {
		return fmt.Errorf("docker repository URL %q contains unsupported characters", raw)
	}
	return nil
}

// Generate renders the payload in the requested format and returns the
// instance metadata key it must be stored under.
func (g *Generator) Generate(input *Input) (key, value string, err error) {
	input.SetDefaults()
	switch input.Format {
	case FormatCloudConfig:
		value, err = g.GenerateCloudConfig(input)
		return configs.Defaults.Provider.UserDataKey, value, err
	default:
		value, err = g.GenerateStartupScript(input)
		return configs.Defaults.Provider.ScriptKey, value, err
	}
}

// GenerateStartupScript renders the bash startup script.
func (g *Generator) GenerateStartupScript(input *Input) (string, error) {
	input.SetDefaults()
	if err := input.Validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := g.scriptTmpl.Execute(&buf, input); err != nil {
		return "", fmt.Errorf("failed to execute startup-script template: %w", err)
	}

	content := buf.String()
	if err := g.ValidateScript(content); err != nil {
		return "", fmt.Errorf("generated startup-script is invalid: %w", err)
	}
	return content, nil
}

// GenerateCloudConfig renders the #cloud-config user-data document.
func (g *Generator) GenerateCloudConfig(input *Input) (string, error) {
	input.SetDefaults()
	if err := input.Validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := g.cloudConfigTmpl.Execute(&buf, input); err != nil {
		return "", fmt.Errorf("failed to execute cloud-config template: %w", err)
	}

	content := buf.String()

	// Validate YAML syntax
	if err := g.ValidateYAML(content); err != nil {
		return "", fmt.Errorf("generated cloud-config is invalid YAML: %w", err)
	}

	return content, nil
}

// ValidateScript performs cheap structural checks on a rendered script.
func (g *Generator) ValidateScript(content string) error {
	if !strings.HasPrefix(content, "#!") {
		return fmt.Errorf("missing shebang line")
	}
	if strings.Contains(content, "<no value>") {
		return fmt.Errorf("unresolved template value")
	}
	return nil
}

// ValidateYAML validates YAML syntax.
func (g *Generator) ValidateYAML(content string) error {
	var data interface{}
	if err := yaml.Unmarshal([]byte(content), &data); err != nil {
		return fmt.Errorf("YAML validation failed: %w", err)
	}
	return nil
}
