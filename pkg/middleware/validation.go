package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/cyberguard/pkg/common"
	"github.com/richxcame/cyberguard/pkg/validation"
)

// ValidateJSON binds the JSON body into req and validates it
func ValidateJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return err
	}
	return validation.ValidateStruct(req)
}

// ValidateQuery binds query parameters into req and validates it
func ValidateQuery(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindQuery(req); err != nil {
		return err
	}
	return validation.ValidateStruct(req)
}

// RespondWithValidationError sends a standardized validation error response
func RespondWithValidationError(c *gin.Context, err error) {
	var valErr *validation.ValidationError
	if errors.As(err, &valErr) {
		common.AppErrorResponse(c, common.NewValidationError("validation failed", valErr.Errors))
		return
	}
	if errors.Is(err, io.EOF) {
		common.ErrorResponse(c, http.StatusBadRequest, "request body is required")
		return
	}
	common.ErrorResponse(c, http.StatusBadRequest, "invalid request format: "+err.Error())
}

// ValidateAndBind validates and binds request to the provided struct.
// Returns false after writing the error response.
func ValidateAndBind(c *gin.Context, req interface{}) bool {
	if err := ValidateJSON(c, req); err != nil {
		RespondWithValidationError(c, err)
		return false
	}
	return true
}

// ValidateAndBindQuery validates and binds query parameters to the provided struct
func ValidateAndBindQuery(c *gin.Context, req interface{}) bool {
	if err := ValidateQuery(c, req); err != nil {
		RespondWithValidationError(c, err)
		return false
	}
	return true
}

// MaxBodySize limits the request body size
func MaxBodySize(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		c.Next()
	}
}
