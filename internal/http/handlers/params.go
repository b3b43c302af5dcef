package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/labflow-backend/internal/platform/apierr"
)

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return uuid.Nil, apierr.BadRequest(errors.New("invalid id"))
	}
	return id, nil
}

// bind decodes the JSON body into dst.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.BadRequest(err)
	}
	return nil
}

// queryYear reads ?year, defaulting to the current year.
func queryYear(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("year"))
	if raw == "" {
		return time.Now().Year(), nil
	}
	y, err := strconv.Atoi(raw)
	if err != nil || y < 2000 || y > 2100 {
		return 0, apierr.BadRequest(errors.New("invalid year"))
	}
	return y, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierr.BadRequest(errors.New("invalid " + name))
	}
	return n, nil
}
