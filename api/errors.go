package api

import (
	"fmt"
	"net/http"
)

// Status codes the service uses for a well-formed reply. 400 carries a
// validation error in the envelope.
var acceptedStatusCodes = []int{http.StatusOK, http.StatusBadRequest}

// UnexpectedStatusError is returned when the service answers with a status code
// outside the accepted ones. The body is never interpreted in that case.
type UnexpectedStatusError struct {
	StatusCode int
	Reason     string
	URL        string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("api returned unexpected status code: %d %s (request URL: %s)", e.StatusCode, e.Reason, e.URL)
}

// ServiceError is returned when a well-formed envelope has a populated error field.
type ServiceError struct {
	// Payload is the decoded error value, usually a string or an object.
	Payload any
	URL     string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("api returned error: %v (request URL: %s)", e.Payload, e.URL)
}

func accepted(statusCode int) bool {
	for _, code := range acceptedStatusCodes {
		if code == statusCode {
			return true
		}
	}
	return false
}
