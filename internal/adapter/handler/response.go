package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorData  `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Error: &ErrorData{Code: "VALIDATION_ERROR", Message: message},
	})
}

// fail writes err in the envelope with the status its kind maps to.
// Internal errors hide their message.
func fail(c *gin.Context, err error) {
	kind := classify(err)
	message := err.Error()
	if kind == internalKind {
		message = "internal error"
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(kind.status, Response{
		Error: &ErrorData{
			Code:    kind.code,
			Message: message,
			Details: errorDetails(err),
		},
	})
}
