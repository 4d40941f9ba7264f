package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the standard JSON envelope
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Meta    *Meta             `json:"meta,omitempty"`
	Error   *ErrorInfo        `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ErrorInfo describes an error in the response envelope
type ErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Meta holds pagination metadata
type Meta struct {
	Limit  int   `json:"limit,omitempty"`
	Offset int   `json:"offset,omitempty"`
	Total  int64 `json:"total"`
	Count  int   `json:"count,omitempty"`
}

// SuccessResponse sends a 200 response with data
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// SuccessResponseWithMeta sends a 200 response with data and metadata
func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// SuccessResponseWithStatus sends a response with a custom status code and message
func SuccessResponseWithStatus(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreatedResponse sends a 201 response
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// ErrorResponse sends an error response
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Error: &ErrorInfo{
			Code:    statusCode,
			Message: message,
		},
	})
}

// AppErrorResponse sends a response built from an AppError
func AppErrorResponse(c *gin.Context, err *AppError) {
	message := err.Message
	if err.Code >= http.StatusInternalServerError && message == "" {
		message = "internal server error"
	}
	c.JSON(err.Code, Response{
		Success: false,
		Message: message,
		Error: &ErrorInfo{
			Code:    err.Code,
			Message: message,
		},
		Errors: err.Fields,
	})
}

// HandleError writes err as an AppError response, falling back to a generic 500
func HandleError(c *gin.Context, err error) {
	if appErr, ok := AsAppError(err); ok {
		AppErrorResponse(c, appErr)
		return
	}
	ErrorResponse(c, http.StatusInternalServerError, "internal server error")
}
