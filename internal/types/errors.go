package types

import "net/http"

// APIError is an operator API failure with a stable code that clients
// can switch on.
type APIError struct {
	Status  int
	Code    string
	Message string
}

var (
	ErrControlNotFound = &APIError{http.StatusNotFound, "CONTROL_404", "Control not found"}
	ErrNoStick         = &APIError{http.StatusNotFound, "STICK_404", "Layout has no stick"}
	ErrBadStickBody    = &APIError{http.StatusBadRequest, "STICK_400", "Invalid request body"}
	ErrUnknownTarget   = &APIError{http.StatusNotFound, "FRAME_404", "Unknown display target"}
	ErrNoFrameYet      = &APIError{http.StatusNotFound, "FRAME_404", "No frame received yet"}
)

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Response is the JSON body for e. details names the offending input
// (control id, target kind, bind error) and may be nil.
func (e *APIError) Response(details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    e.Code,
			Message: e.Message,
			Details: details,
		},
	}
}
