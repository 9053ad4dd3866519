package gcp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/compute/v1"
)

// Injectable lookups so tests do not depend on a local gcloud install.
var (
	gcloudConfigProject = gcloudActiveProject
	credentialsProject  = defaultCredentialsProject
)

// ResolveProject returns explicit when set, otherwise the first project found in
// GOOGLE_CLOUD_PROJECT, CLOUDSDK_CORE_PROJECT, the active gcloud configuration
// and finally the application default credentials.
func ResolveProject(ctx context.Context, explicit string) (string, error) {
	if p := strings.TrimSpace(explicit); p != "" {
		return p, nil
	}
	for _, env := range []string{"GOOGLE_CLOUD_PROJECT", "CLOUDSDK_CORE_PROJECT"} {
		if p := strings.TrimSpace(os.Getenv(env)); p != "" {
			return p, nil
		}
	}
	if p, err := gcloudConfigProject(ctx); err == nil && p != "" {
		return p, nil
	}
	if p, err := credentialsProject(ctx); err == nil && p != "" {
		return p, nil
	}
	return "", fmt.Errorf("no GCP project configured")
}

func gcloudActiveProject(ctx context.Context) (string, error) {
	if _, err := exec.LookPath("gcloud"); err != nil {
		return "", err
	}
	out, err := exec.CommandContext(ctx, "gcloud", "config", "get-value", "project").Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("gcloud config get-value project: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("gcloud config get-value project: %w", err)
	}
	p := strings.TrimSpace(string(out))
	if p == "(unset)" {
		return "", nil
	}
	return p, nil
}

func defaultCredentialsProject(ctx context.Context) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, compute.ComputeScope)
	if err != nil {
		return "", err
	}
	return creds.ProjectID, nil
}
