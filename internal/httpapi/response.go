package httpapi

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type listResponse[T any] struct {
	Items            []T    `json:"items"`
	Count            int    `json:"count"`
	LastEvaluatedKey string `json:"lastEvaluatedKey,omitempty"`
}

func newListResponse[T any](items []T, cursor string) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items), LastEvaluatedKey: cursor}
}

type pageSizes struct {
	def int
	max int
}

// limit reads the limit query parameter. Missing or unusable values fall back
// to the default; large values are clamped.
func (p pageSizes) limit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return p.def
	}
	if n > p.max {
		return p.max
	}
	return n
}

// bindBody decodes a required JSON body into dst. It writes the 400 response
// itself and reports false when the body is missing or malformed.
func bindBody(c *gin.Context, dst any) bool {
	raw, err := c.GetRawData()
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body is required"})
		return false
	}
	if err := binding.JSON.BindBody(raw, dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body", "message": err.Error()})
		return false
	}
	return true
}

// respondError maps a service error onto an HTTP status and error body
func respondError(c *gin.Context, err error) {
	st, ok := status.FromError(err)
	if !ok {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unexpected handler error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": "unexpected error"})
		return
	}

	code, text := http.StatusInternalServerError, "Internal server error"
	switch st.Code() {
	case codes.NotFound:
		code, text = http.StatusNotFound, "Not found"
	case codes.AlreadyExists:
		code, text = http.StatusConflict, "Conflict"
	case codes.InvalidArgument:
		code, text = http.StatusBadRequest, "Bad request"
	case codes.Unauthenticated:
		code, text = http.StatusUnauthorized, "Unauthorized"
	}
	_ = c.Error(err)
	c.JSON(code, gin.H{"error": text, "message": st.Message()})
}
