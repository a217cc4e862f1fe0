package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/billing"
)

type CheckoutRequest struct {
	Plan string `json:"plan" binding:"required"`
}

type SessionAvailableRequest struct {
	PageURL string `json:"page_url"`
}

func (b *Bridge) registerBilling(g *gin.RouterGroup) {
	g.GET("/subscription", b.Subscription)
	g.POST("/refresh", b.RefreshSubscription)
	g.POST("/checkout", b.Checkout)
	g.POST("/portal", b.Portal)
	g.POST("/session-available", b.SessionAvailable)
}

func (b *Bridge) Subscription(c *gin.Context) {
	b.reply(c, b.billing.Data(), nil)
}

// RefreshSubscription answers with the status after the refresh; failures
// have already reset it and queued any notice, so they are not an HTTP error.
func (b *Bridge) RefreshSubscription(c *gin.Context) {
	_ = b.billing.Refresh(c.Request.Context())
	b.reply(c, b.billing.Data(), nil)
}

func (b *Bridge) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	b.reply(c, nil, b.billing.CreateCheckout(c.Request.Context(), billing.Plan(req.Plan)))
}

func (b *Bridge) Portal(c *gin.Context) {
	b.reply(c, nil, b.billing.OpenCustomerPortal(c.Request.Context()))
}

func (b *Bridge) SessionAvailable(c *gin.Context) {
	var req SessionAvailableRequest
	_ = c.ShouldBindJSON(&req)
	page := req.PageURL
	if page == "" {
		page = b.effects.CurrentURL()
	}
	_ = b.billing.OnSessionAvailable(c.Request.Context(), page)
	b.reply(c, b.billing.Data(), nil)
}
