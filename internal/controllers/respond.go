package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"driveassist/internal/apperr"
	"driveassist/internal/middleware"
)

// respondOK writes the uniform success envelope with extra payload fields.
func respondOK(c *gin.Context, fields gin.H) {
	payload := gin.H{"success": true}
	for k, v := range fields {
		payload[k] = v
	}
	c.JSON(http.StatusOK, payload)
}

// respondErr maps err through the taxonomy onto {success:false, error}.
func respondErr(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

// parseTimestamp accepts RFC3339(Nano) timestamps, tolerating the missing
// timezone suffix some device firmwares emit (treated as UTC). An empty
// string parses to the zero time.
func parseTimestamp(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, nil
	}
	// The suffix scan assumes a full datetime: shorter strings (a bare
	// date, say) slip past the guard and are rejected by the parse below.
	// The length check also keeps the slice in bounds.
	if len(ts) >= 6 && !(strings.HasSuffix(ts, "Z") || strings.ContainsAny(ts[len(ts)-6:], "+-")) {
		ts += "Z"
	}
	return time.Parse(time.RFC3339Nano, ts)
}

// queryUserID extracts the mandatory user_id query parameter.
func queryUserID(c *gin.Context) (uint, error) {
	raw := c.Query("user_id")
	if raw == "" {
		return 0, apperr.Validation("user_id is required")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, apperr.Validation("invalid user_id %q", raw)
	}
	return uint(id), nil
}
