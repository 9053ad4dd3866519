package gcp

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/compute/v1"
	"google.golang.org/api/googleapi"
)

// OperationError is returned when a long-running operation finishes with errors.
type OperationError struct {
	Operation string
	Target    string
	Errors    []*compute.OperationErrorErrors
}

func (e *OperationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, oe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", oe.Code, oe.Message))
	}
	return fmt.Sprintf("operation %s on %s failed: %s", e.Operation, e.Target, strings.Join(msgs, "; "))
}

// hasCode reports whether any operation error carries one of codes.
func (e *OperationError) hasCode(codes ...string) bool {
	for _, oe := range e.Errors {
		for _, c := range codes {
			if oe.Code == c {
				return true
			}
		}
	}
	return false
}

// IsAlreadyExists reports a naming collision: HTTP 409 from the insert call
// or RESOURCE_ALREADY_EXISTS reported by the operation.
func IsAlreadyExists(err error) bool {
	return isAPIStatus(err, http.StatusConflict) || isOperationCode(err, "RESOURCE_ALREADY_EXISTS")
}

// IsNotFound reports a missing resource.
func IsNotFound(err error) bool {
	return isAPIStatus(err, http.StatusNotFound) || isOperationCode(err, "RESOURCE_NOT_FOUND")
}

// IsPermissionDenied reports missing IAM permissions or a disabled API.
func IsPermissionDenied(err error) bool {
	return isAPIStatus(err, http.StatusForbidden, http.StatusUnauthorized)
}

// IsQuotaExceeded reports an exhausted project or regional quota.
func IsQuotaExceeded(err error) bool {
	if isOperationCode(err, "QUOTA_EXCEEDED") {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		for _, item := range gerr.Errors {
			if item.Reason == "quotaExceeded" || item.Reason == "rateLimitExceeded" {
				return true
			}
		}
	}
	return false
}

func isAPIStatus(err error, codes ...int) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		for _, code := range codes {
			if gerr.Code == code {
				return true
			}
		}
	}
	return false
}

func isOperationCode(err error, codes ...string) bool {
	if err == nil {
		return false
	}
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.hasCode(codes...)
}
