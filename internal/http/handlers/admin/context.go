package admin

import (
	"time"

	handlershared "github.com/kedai-next/internal/http/handlers/shared"
	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/service"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	adminID, ok := handlershared.ContextUint(c, "admin_id")
	if !ok {
		respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
	}
	return adminID, ok
}

const defaultAdminPageSize = 20

// staffActor 当前店员作为审计操作者
func staffActor(c *gin.Context) service.Actor {
	actor := service.Actor{
		Name:     c.GetString("username"),
		ClientIP: c.ClientIP(),
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			actor.RequestID = id
		}
	}
	return actor
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
