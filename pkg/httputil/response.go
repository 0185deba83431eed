package httputil

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{Status: StatusSuccess, Data: data}
}

func NewErrorResponse(message string) *Response {
	return &Response{Status: StatusError, Message: message}
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, NewSuccessResponse(data))
}

// StatusOf maps an application error code to its HTTP status.
func StatusOf(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrAlreadyEnrolled, errors.ErrAlreadySent, errors.ErrConflict:
		return http.StatusConflict
	case errors.ErrValidation:
		return http.StatusBadRequest
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error writes the error envelope. Server errors are attached to the gin
// context for the logging middleware and never expose their cause.
func Error(c *gin.Context, err error) {
	status := StatusOf(err)
	message := "internal server error"
	if status < http.StatusInternalServerError {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
	} else {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, NewErrorResponse(message))
}

// BindError answers a failed ShouldBind* call with 400.
func BindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, NewErrorResponse(validator.Message(err)))
}

// IDParam reads a positive integer path parameter, answering 400 when it
// is not one.
func IDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewErrorResponse("invalid "+name))
		return 0, false
	}
	return id, true
}

// QueryID is IDParam for query string values.
func QueryID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewErrorResponse("invalid "+name))
		return 0, false
	}
	return id, true
}
