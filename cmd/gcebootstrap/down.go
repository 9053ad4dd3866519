package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/Bibi40k/gce-web-bootstrap/pkg/config"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/provision"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/stack"
)

type downOptions struct {
	yes        bool
	resultPath string
}

// loadRecordedResult returns the result file written by up, or nil when the
// path is empty or the file does not exist.
func loadRecordedResult(path string) (*config.ProvisionResult, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	res, err := config.LoadProvisionResult(path)
	if err != nil {
		return nil, &userError{
			msg:  err.Error(),
			hint: "Fix or remove the result file, or pass --result \"\" to ignore it",
		}
	}
	return &res, nil
}

// downStack picks the descriptors to tear down: --config, else the stack file
// recorded by up, else the embedded defaults. The recorded instance and
// network must match, so a stale result file never leads to deleting a
// different stack.
func downStack(recorded *config.ProvisionResult, resultPath string) (*stack.Stack, error) {
	path := stackFile
	if path == "" && recorded != nil {
		path = recorded.StackFile
	}
	s, err := loadStack(path)
	if err != nil {
		return nil, err
	}
	if recorded == nil {
		return s, nil
	}

	if inst, ok := recorded.Instance(); ok && inst.Name != s.Instance.Name {
		return nil, mismatchError(resultPath, "instance", inst.Name, s.Instance.Name)
	}
	for _, h := range recorded.Resources {
		if h.Kind == string(stack.KindNetwork) && h.Name != s.Network.Name {
			return nil, mismatchError(resultPath, "network", h.Name, s.Network.Name)
		}
	}
	return s, nil
}

func mismatchError(resultPath, kind, recorded, configured string) error {
	return &userError{
		msg:  fmt.Sprintf("%s records %s %q but the stack describes %q", resultPath, kind, recorded, configured),
		hint: "Pass the --config used for 'gcebootstrap up', or --result \"\" to ignore the result file",
	}
}

// downProject picks the project: --project, the stack file, the result file,
// then the usual discovery chain.
func downProject(ctx context.Context, stackProject string, recorded *config.ProvisionResult) (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}
	if stackProject != "" {
		return stackProject, nil
	}
	if recorded != nil {
		return recorded.Project, nil
	}
	return resolveProject(ctx, "")
}

func runDown(ctx context.Context, opts downOptions) error {
	recorded, err := loadRecordedResult(opts.resultPath)
	if err != nil {
		return err
	}
	s, err := downStack(recorded, opts.resultPath)
	if err != nil {
		return err
	}
	project, err := downProject(ctx, s.Project, recorded)
	if err != nil {
		return err
	}

	cfg := &provision.Config{
		Project:         project,
		CredentialsFile: credentialsFile,
		Stack:           s,
	}

	fmt.Printf("\033[1mDestroy stack\033[0m — project %s\n", project)
	fmt.Println(strings.Repeat("─", 50))
	printStackSummary(s)
	fmt.Println()

	if err := requireConfirmation(opts.yes, func() (bool, error) {
		return confirmTypedName("delete every resource above", s.Network.Name)
	}); err != nil {
		return err
	}
	fmt.Println()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signal.Stop(mainSigCh)
	localSigCh := make(chan os.Signal, 1)
	signal.Notify(localSigCh, os.Interrupt)
	go func() {
		select {
		case <-localSigCh:
			fmt.Println("\n\n\033[33m⚠ Interrupted — stopping teardown...\033[0m")
			cancel()
		case <-ctx.Done():
		}
	}()

	deleted, err := provision.DestroyWithLogger(ctx, cfg, getLogger())

	signal.Stop(localSigCh)
	signal.Notify(mainSigCh, os.Interrupt)

	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return errCancelled
		}
		return fmt.Errorf("teardown failed: %w", err)
	}

	fmt.Println()
	if len(deleted) == 0 {
		fmt.Println("  Nothing to delete.")
	} else {
		fmt.Printf("\033[32m✓ Deleted %d resources\033[0m\n", len(deleted))
	}

	if recorded != nil {
		if err := os.Remove(opts.resultPath); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "\033[33mWarning:\033[0m failed to remove %s: %v\n", opts.resultPath, err)
		}
	}
	return nil
}
