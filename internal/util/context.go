package util

import (
	"github.com/gin-gonic/gin"

	"github.com/annolab/metahub/dao/model"
)

const (
	UserIDKey   = "x-user-id"
	UsernameKey = "x-user-name"
	EmailKey    = "x-user-email"

	RolePlatformKey = "x-role-platform"
)

func SetJWTContext(
	c *gin.Context,
	msg JWTMessage,
) {
	c.Set(UserIDKey, msg.UserID)
	c.Set(UsernameKey, msg.Username)
	c.Set(EmailKey, msg.Email)

	c.Set(RolePlatformKey, msg.RolePlatform)
}

func GetToken(ctx *gin.Context) JWTMessage {
	var msg JWTMessage
	msg.UserID = ctx.GetUint(UserIDKey)
	msg.Username = ctx.GetString(UsernameKey)
	msg.Email = ctx.GetString(EmailKey)

	rolePlatform, _ := ctx.Get(RolePlatformKey)
	msg.RolePlatform, _ = rolePlatform.(model.Role)
	return msg
}
