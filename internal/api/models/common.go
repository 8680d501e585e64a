// Package models defines request and response types for the subzone HTTP API.
// All types are JSON-serializable; request types also carry form tags where
// the endpoint accepts form bodies.
package models

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse represents a simple status response.
type StatusResponse struct {
	Status string `json:"status"`
}

// ResultResponse is the success/message envelope used by the provisioning
// endpoints.
type ResultResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	// Created is set when the provider record exists even though the
	// operation as a whole failed.
	Created bool `json:"created,omitempty"`
}
