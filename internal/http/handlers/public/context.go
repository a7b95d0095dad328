package public

import (
	"strings"

	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	cartSessionHeader    = "X-Cart-Session"
	geocodeSessionHeader = "X-Session-ID"
)

func getRequestID(c *gin.Context) string {
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

// buildActor 构造审计用的操作者
func buildActor(c *gin.Context, name string) service.Actor {
	return service.Actor{
		Name:      name,
		ClientIP:  c.ClientIP(),
		RequestID: getRequestID(c),
	}
}

func customerActor(c *gin.Context) service.Actor {
	return buildActor(c, constants.AuditActorCustomer)
}

func cartSession(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(cartSessionHeader))
}

// geocodeSession 优先 X-Session-ID，其次购物车会话；都缺失时签发新会话并写回响应头
func geocodeSession(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(geocodeSessionHeader)); id != "" {
		return id
	}
	if id := cartSession(c); id != "" {
		return "cart:" + id
	}
	id := service.NewSessionID()
	c.Header(geocodeSessionHeader, id)
	return id
}
