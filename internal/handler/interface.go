package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/annolab/metahub/dao/store"
	"github.com/annolab/metahub/internal/access"
)

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

type RegisterConfig struct {
	Stores *store.Stores
	Engine *access.Engine
}

// Registers collects the manager constructors; each handler file
// appends its own in an init function.
var Registers []func(RegisterConfig) Manager
