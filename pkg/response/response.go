package response

import "github.com/gin-gonic/gin"

// Status classifies the outcome in the response envelope. 2xx responses carry
// "success", 4xx business failures carry "fail", 5xx carries "error".
type Status string

const (
	StatusSuccess Status = "success"
	StatusFail    Status = "fail"
	StatusError   Status = "error"
)

// Envelope is the uniform wrapper every endpoint returns.
type Envelope[T any] struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// StatusFor classifies an HTTP status code.
func StatusFor(code int) Status {
	switch {
	case code >= 200 && code < 300:
		return StatusSuccess
	case code >= 400 && code < 500:
		return StatusFail
	default:
		return StatusError
	}
}

// Success writes a 2xx envelope.
func Success[T any](c *gin.Context, code int, data T, message string) {
	c.JSON(code, Envelope[T]{Status: StatusFor(code), Message: message, Data: data})
}

// Fail writes a 4xx envelope for business failures (validation, not found,
// conflicts). data usually carries field details or is nil.
func Fail(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Envelope[any]{Status: StatusFor(code), Message: message, Data: data})
}

// Error writes a 5xx envelope. The message stays generic so internals never
// leak to the caller.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Envelope[any]{Status: StatusFor(code), Message: message})
}
