// Package api holds the JSON bodies exchanged between the intake server and
// its clients.
package api

import "github.com/mrsinham/oeukintake/internal/record"

// HeaderIdempotencyKey carries the client's submission key.
const HeaderIdempotencyKey = "Idempotency-Key"

// Routes, relative to the API base URL.
const (
	PathRecords  = "/medical-records"
	PathAuth     = "/auth/doctor"
	PathComments = "/physician-comments"
)

// Response messages.
const (
	MsgCreated         = "Medical record created successfully"
	MsgCommentsUpdated = "Physician comments updated successfully"
	MsgNotFound        = "Record not found"
)

type CreateResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type ListResponse struct {
	Success bool             `json:"success"`
	Records []record.Summary `json:"records"`
}

type GetResponse struct {
	Success bool           `json:"success"`
	Record  *record.Record `json:"record"`
}

type CommentsRequest struct {
	PhysicianComments string `json:"physician_comments"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AuthRequest struct {
	Password string `json:"password"`
}

type AuthResponse struct {
	Success       bool `json:"success"`
	Authenticated bool `json:"authenticated"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
