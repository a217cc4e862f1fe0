package handlers

import (
	"github.com/gin-gonic/gin"
)

type SignUpRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type EmailRequest struct {
	Email      string `json:"email" binding:"required"`
	RedirectTo string `json:"redirect_to"`
}

type PasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

type VerifyRequest struct {
	Type      string `json:"type" binding:"required"`
	TokenHash string `json:"token_hash" binding:"required"`
}

func (b *Bridge) registerAuth(a *gin.RouterGroup) {
	a.POST("/signup", b.SignUp)
	a.POST("/signin", b.SignIn)
	a.POST("/signout", b.SignOut)
	a.POST("/reset-password", b.ResetPassword)
	a.POST("/update-password", b.UpdatePassword)
	a.POST("/resend", b.ResendConfirmation)
	a.POST("/verify", b.Verify)
}

func (b *Bridge) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	b.reply(c, nil, b.sessions.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName))
}

func (b *Bridge) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	if err := b.sessions.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		b.reply(c, nil, err)
		return
	}
	b.Session(c)
}

func (b *Bridge) SignOut(c *gin.Context) {
	if err := b.sessions.SignOut(c.Request.Context()); err != nil {
		b.reply(c, nil, err)
		return
	}
	b.Session(c)
}

func (b *Bridge) ResetPassword(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	b.reply(c, nil, b.sessions.ResetPassword(c.Request.Context(), req.Email, req.RedirectTo))
}

func (b *Bridge) UpdatePassword(c *gin.Context) {
	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	b.reply(c, nil, b.sessions.UpdatePassword(c.Request.Context(), req.Password))
}

func (b *Bridge) ResendConfirmation(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	b.reply(c, nil, b.sessions.ResendConfirmation(c.Request.Context(), req.Email))
}

func (b *Bridge) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	if err := b.sessions.VerifyLink(c.Request.Context(), req.Type, req.TokenHash); err != nil {
		b.reply(c, nil, err)
		return
	}
	b.Session(c)
}
