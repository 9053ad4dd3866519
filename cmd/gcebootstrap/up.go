package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/Bibi40k/gce-web-bootstrap/internal/utils"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/config"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/gcp"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/provision"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/stack"
)

type upOptions struct {
	yes         bool
	resultPath  string
	verifyHTTP  bool
	sshKeyPath  string
	sshUser     string
	format      string
	dockerUsers []string
}

// resolveProject wraps gcp.ResolveProject with a user-facing hint.
func resolveProject(ctx context.Context, explicit string) (string, error) {
	project, err := gcp.ResolveProject(ctx, explicit)
	if err != nil {
		return "", &userError{
			msg:  err.Error(),
			hint: "Pass --project, set GOOGLE_CLOUD_PROJECT, or run 'gcloud config set project <id>'",
		}
	}
	return project, nil
}

// buildUpConfig turns CLI flags into a provision.Config.
func buildUpConfig(ctx context.Context, opts upOptions) (*provision.Config, error) {
	s, err := loadStack(stackFile)
	if err != nil {
		return nil, err
	}
	project := projectFlag
	if project == "" {
		project = s.Project
	}
	project, err = resolveProject(ctx, project)
	if err != nil {
		return nil, err
	}

	cfg := &provision.Config{
		Project:         project,
		CredentialsFile: credentialsFile,
		Stack:           s,
		SSHUser:         opts.sshUser,
		VerifyHTTP:      opts.verifyHTTP,
	}
	cfg.Payload.Format = opts.format
	cfg.Payload.DockerUsers = opts.dockerUsers

	if opts.sshKeyPath != "" {
		key, err := readSSHKey(opts.sshKeyPath)
		if err != nil {
			return nil, err
		}
		if opts.sshUser == "" {
			return nil, &userError{msg: "--ssh-key requires --ssh-user"}
		}
		cfg.SSHPublicKeys = []string{key}
	}

	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runUp(ctx context.Context, opts upOptions) error {
	cfg, err := buildUpConfig(ctx, opts)
	if err != nil {
		return err
	}
	s := cfg.Stack

	fmt.Printf("\033[1mProvision stack\033[0m — project %s\n", cfg.Project)
	fmt.Println(strings.Repeat("─", 50))
	printStackSummary(s)
	if len(cfg.SSHPublicKeys) > 0 {
		if fp, err := utils.SSHFingerprint(cfg.SSHPublicKeys[0]); err == nil {
			fmt.Printf("  SSH key:    %s (%s)\n", cfg.SSHUser, fp)
		}
	}
	fmt.Println()
	fmt.Println("\033[33m⚠ This creates billable resources. Nothing is rolled back if a step fails.\033[0m")

	if err := requireConfirmation(opts.yes, func() (bool, error) {
		return confirmCreate(fmt.Sprintf("Create %d resources in project %s?", len(s.Steps()), cfg.Project))
	}); err != nil {
		return err
	}
	fmt.Println()

	logger := getLogger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Take over Ctrl+C from the global handler so the in-flight wait is cancelled.
	signal.Stop(mainSigCh)
	localSigCh := make(chan os.Signal, 1)
	signal.Notify(localSigCh, os.Interrupt)
	go func() {
		select {
		case <-localSigCh:
			fmt.Println("\n\n\033[33m⚠ Interrupted — stopping after the current request...\033[0m")
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	res, err := provision.ProvisionWithLogger(ctx, cfg, logger)

	signal.Stop(localSigCh)
	signal.Notify(mainSigCh, os.Interrupt)

	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			fmt.Println("\n  Resources created before the interrupt are left in place.")
			fmt.Println("  Remove them with: \033[36mgcebootstrap down\033[0m")
			return errCancelled
		}
		if res != nil {
			// Every resource exists; only the read-back or HTTP check failed.
			saveResult(opts.resultPath, cfg, res)
		}
		return fmt.Errorf("provisioning failed: %w", err)
	}

	fmt.Println()
	fmt.Printf("\033[32m✓ Stack provisioned in %s\033[0m\n", time.Since(start).Round(time.Second))
	fmt.Printf("  Instance:    %s (%s)\n", s.Instance.Name, s.Instance.Zone)
	fmt.Printf("  Internal IP: %s\n", res.InternalIP)
	fmt.Printf("  External IP: \033[1m%s\033[0m\n", res.ExternalIP)
	if res.HTTPReady {
		fmt.Printf("  HTTP ready:  %v\n", res.HTTPReady)
	} else {
		fmt.Println("  Docker and Nginx are installed by the startup script; allow a few minutes.")
	}
	fmt.Printf("\n  Open: \033[36mhttp://%s\033[0m\n", res.ExternalIP)
	if cfg.SSHUser != "" {
		fmt.Printf("  Connect: \033[36mssh %s@%s\033[0m\n", cfg.SSHUser, res.ExternalIP)
	}
	fmt.Println()

	saveResult(opts.resultPath, cfg, res)
	return nil
}

func saveResult(path string, cfg *provision.Config, res *provision.Result) {
	if path == "" {
		return
	}
	out := config.ProvisionResult{
		Project:    res.Project,
		RunID:      res.RunID,
		Region:     cfg.Stack.Region,
		Zone:       cfg.Stack.Instance.Zone,
		Resources:  res.Handles(),
		ExternalIP: res.ExternalIP,
		InternalIP: res.InternalIP,
		HTTPReady:  res.HTTPReady,
		StackFile:  absStackFile(stackFile),
	}
	if err := config.SaveProvisionResult(path, out); err != nil {
		fmt.Fprintf(os.Stderr, "\033[33mWarning:\033[0m failed to save result: %v\n", err)
		return
	}
	fmt.Printf("  Result saved: %s\n\n", path)
}

// absStackFile records the stack path so down works from any directory.
func absStackFile(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func printStackSummary(s *stack.Stack) {
	fmt.Printf("  Region:     %s\n", s.Region)
	fmt.Printf("  Network:    %s (custom)\n", s.Network.Name)
	fmt.Printf("  Subnet:     %s %s\n", s.Subnet.Name, s.Subnet.CIDR)
	for _, fw := range s.Firewalls {
		fmt.Printf("  Firewall:   %s %s\n", fw.Name, describeAllowed(fw))
	}
	fmt.Printf("  Instance:   %s %s %s\n", s.Instance.Name, s.Instance.MachineType, s.Instance.Zone)
	fmt.Printf("  Image:      %s\n", s.Instance.Image)
}

func describeAllowed(fw stack.FirewallRule) string {
	parts := make([]string, 0, len(fw.Allowed))
	for _, a := range fw.Allowed {
		if len(a.Ports) == 0 {
			parts = append(parts, a.Protocol)
			continue
		}
		parts = append(parts, a.Protocol+":"+strings.Join(a.Ports, ","))
	}
	return fmt.Sprintf("%s %s from %s", fw.Direction, strings.Join(parts, " "), strings.Join(fw.SourceRanges, ","))
}
