// Package handlers holds the gin endpoint handlers of the admin API and
// the public lead/product surface.
package handlers

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

var errBadBodySize = errors.New("Некорректный размер запроса")

// decodeJSONBody reads a size-capped JSON body into target. A malformed
// body decodes to the zero value rather than failing, so a broken client
// gets the same validation answers an empty payload would. Only an absent
// or oversized body is an error.
func decodeJSONBody(c *gin.Context, maxBytes int64, target any) error {
	length := c.Request.ContentLength
	if length <= 0 || length > maxBytes {
		return errBadBodySize
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBytes))
	if err != nil {
		return errBadBodySize
	}
	_ = json.Unmarshal(data, target)
	return nil
}
