package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/agoraforum/agora/internal/middleware"
)

type RouterDeps struct {
	Auth       *AuthHandler
	Captcha    *CaptchaHandler
	Users      *UserHandler
	Files      *FileHandler
	TicketAuth gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.Use(deps.TicketAuth)

	api.GET("/captcha", deps.Captcha.Get)

	api.POST("/auth/register", deps.Auth.Register)
	api.GET("/auth/activation/:userId/:code", deps.Auth.Activation)
	api.POST("/auth/login", deps.Auth.Login)
	api.GET("/auth/logout", deps.Auth.Logout)
	api.GET("/auth/forget/code", deps.Auth.ForgetCode)
	api.POST("/auth/forget/password", deps.Auth.ForgetPassword)

	authGroup := api.Group("")
	authGroup.Use(middleware.RequireLogin())
	authGroup.POST("/user/password", deps.Users.ChangePassword)
	authGroup.POST("/user/header", deps.Users.UploadHeader)
	authGroup.GET("/user/:id", deps.Users.Profile)

	api.GET("/files/:key", deps.Files.Get)
}
