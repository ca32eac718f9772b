package kanbanhttp

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCORSHeaders(c.Writer.Header())
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func RegisterGinRoutes(r gin.IRouter, cfg Config) error {
	if r == nil {
		return fmt.Errorf("router is nil")
	}
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return err
	}
	chat := &chatHandlers{relay: resolved.Relay, logger: resolved.Logger}
	tasks := &taskHandlers{store: resolved.Store, logger: resolved.Logger}

	g := r.Group(resolved.BasePath, corsMiddleware())
	for _, p := range []string{"/chat", "/tasks", "/tasks/reorder", "/tasks/:id", "/tasks/:id/move"} {
		g.OPTIONS(p)
	}
	g.POST("/chat", gin.WrapF(chat.handleChat))
	g.GET("/tasks", tasks.list)
	g.POST("/tasks", tasks.create)
	g.POST("/tasks/reorder", tasks.reorder)
	g.PATCH("/tasks/:id", tasks.update)
	g.DELETE("/tasks/:id", tasks.remove)
	g.POST("/tasks/:id/move", tasks.move)
	return nil
}
