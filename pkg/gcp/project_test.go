package gcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubProjectLookups(t *testing.T, gcloud, creds string) {
	t.Helper()
	origGcloud, origCreds := gcloudConfigProject, credentialsProject
	t.Cleanup(func() {
		gcloudConfigProject, credentialsProject = origGcloud, origCreds
	})
	gcloudConfigProject = func(context.Context) (string, error) {
		if gcloud == "" {
			return "", errors.New("gcloud not installed")
		}
		return gcloud, nil
	}
	credentialsProject = func(context.Context) (string, error) {
		if creds == "" {
			return "", errors.New("no credentials")
		}
		return creds, nil
	}
}

func TestResolveProject_Order(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		env      string
		sdkEnv   string
		gcloud   string
		creds    string
		want     string
	}{
		{"explicit wins", "flag-proj", "env-proj", "sdk-proj", "gcloud-proj", "cred-proj", "flag-proj"},
		{"env", "", "env-proj", "sdk-proj", "gcloud-proj", "cred-proj", "env-proj"},
		{"sdk env", "", "", "sdk-proj", "gcloud-proj", "cred-proj", "sdk-proj"},
		{"gcloud config", "", "", "", "gcloud-proj", "cred-proj", "gcloud-proj"},
		{"credentials", "", "", "", "", "cred-proj", "cred-proj"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOOGLE_CLOUD_PROJECT", tt.env)
			t.Setenv("CLOUDSDK_CORE_PROJECT", tt.sdkEnv)
			stubProjectLookups(t, tt.gcloud, tt.creds)

			got, err := ResolveProject(context.Background(), tt.explicit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveProject_NoneFound(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("CLOUDSDK_CORE_PROJECT", "")
	stubProjectLookups(t, "", "")

	_, err := ResolveProject(context.Background(), "  ")
	assert.Error(t, err)
}
