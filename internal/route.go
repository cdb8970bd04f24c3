package internal

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annolab/metahub/internal/handler"
	"github.com/annolab/metahub/internal/middleware"
)

const apiPrefix = "/v1"

type Backend struct {
	R *gin.Engine
}

func Register(conf handler.RegisterConfig) *Backend {
	s := new(Backend)
	s.R = gin.Default()

	s.R.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ok",
		})
	})
	s.R.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.registerService(conf)

	return s
}

func (b *Backend) registerService(conf handler.RegisterConfig) {
	managers := registerManagers(conf)

	publicRouter := b.R.Group(apiPrefix)

	protectedRouter := b.R.Group(apiPrefix)
	protectedRouter.Use(middleware.AuthProtected())

	adminRouter := b.R.Group(apiPrefix + "/admin")
	adminRouter.Use(middleware.AuthProtected(), middleware.AuthAdmin())

	for _, mgr := range managers {
		mgr.RegisterPublic(publicRouter.Group(mgr.GetName()))
		mgr.RegisterProtected(protectedRouter.Group(mgr.GetName()))
		mgr.RegisterAdmin(adminRouter.Group(mgr.GetName()))
	}
}
