package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Bibi40k/gce-web-bootstrap/pkg/gcp"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/provision"
)

type userError struct {
	msg  string
	hint string
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Hint() string  { return e.hint }

// explainError maps provider failures to a userError with a next step.
// The original error text stays in the message.
func explainError(err error) error {
	if err == nil {
		return nil
	}
	var ue *userError
	if errors.As(err, &ue) {
		return err
	}

	var credErr *gcp.CredentialsError
	var hint string
	switch {
	case errors.As(err, &credErr):
		hint = fmt.Sprintf("gcloud auth application-default login (expected %s) or pass --credentials", credErr.ADCPath)
	case gcp.IsAlreadyExists(err):
		hint = "A resource with this name already exists. Run 'gcebootstrap down' first or rename it in the stack file"
	case gcp.IsPermissionDenied(err):
		hint = "Check that the Compute Engine API is enabled and the account has roles/compute.admin"
	case gcp.IsQuotaExceeded(err):
		hint = "Request a quota increase or pick another region/machine type"
	case errors.Is(err, context.DeadlineExceeded):
		hint = "The operation timed out; check the console, then run 'gcebootstrap down' to clean up"
	}

	// A halted run always reports what it left behind.
	var stepErr *provision.StepError
	if errors.As(err, &stepErr) && len(stepErr.Created) > 0 {
		left := fmt.Sprintf("Left in place: %s.", strings.Join(stepErr.CreatedNames(), ", "))
		if hint == "" {
			hint = left + " Run 'gcebootstrap down' to remove them"
		} else {
			hint += ". " + left
		}
	}
	if hint == "" {
		return err
	}
	return &userError{msg: err.Error(), hint: hint}
}
