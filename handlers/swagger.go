package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the bridge.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>linguaflow companion - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// OpenAPI document for the local bridge. Every JSON response has the shape
// {data?, error?: {kind, message}, effects: {notices, navigation?}}.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "linguaflow-companion", "version": "v0.1.0" },
  "paths": {
    "/session": { "get": { "summary": "Current session state", "responses": { "200": { "description": "status, user, busy" } } } },
    "/effects": { "get": { "summary": "Drain queued notices and navigation", "responses": { "200": { "description": "effects" } } } },
    "/auth/signup": {
      "post": {
        "summary": "Create an account",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"},"display_name":{"type":"string"}}}}}},
        "responses": { "200": { "description": "account created or confirmation sent" }, "409": { "description": "already registered" }, "429": { "description": "rate limited" } }
      }
    },
    "/auth/signin": {
      "post": {
        "summary": "Sign in with email and password",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "session state" }, "401": { "description": "invalid credentials" }, "400": { "description": "email not confirmed" } }
      }
    },
    "/auth/signout": { "post": { "summary": "Sign out", "responses": { "200": { "description": "session state" } } } },
    "/auth/reset-password": { "post": { "summary": "Send a password recovery email", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"redirect_to":{"type":"string"}}}}}}, "responses": { "200": { "description": "check your inbox" } } } },
    "/auth/update-password": { "post": { "summary": "Change the password", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "updated" }, "400": { "description": "weak password" } } } },
    "/auth/resend": { "post": { "summary": "Resend the confirmation email", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"}}}}}}, "responses": { "200": { "description": "sent" } } } },
    "/auth/verify": { "post": { "summary": "Complete an emailed confirmation or recovery link", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"type":{"type":"string"},"token_hash":{"type":"string"}}}}}}, "responses": { "200": { "description": "session state" } } } },
    "/billing/subscription": { "get": { "summary": "Cached subscription status", "responses": { "200": { "description": "subscribed, subscription_tier, subscription_end" }, "401": { "description": "not signed in" } } } },
    "/billing/refresh": { "post": { "summary": "Refresh subscription status", "responses": { "200": { "description": "status after refresh" } } } },
    "/billing/checkout": { "post": { "summary": "Start checkout (monthly|yearly)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"plan":{"type":"string"}}}}}}, "responses": { "200": { "description": "navigation effect" } } } },
    "/billing/portal": { "post": { "summary": "Open the customer portal", "responses": { "200": { "description": "navigation effect" } } } },
    "/billing/session-available": { "post": { "summary": "Report a page load with a session", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"page_url":{"type":"string"}}}}}}, "responses": { "200": { "description": "status" } } } },
    "/notifications/preferences": { "get": { "summary": "Effective channels for a category", "parameters": [{"name":"category","in":"query","schema":{"type":"string"}}], "responses": { "200": { "description": "email, push" } } } },
    "/notifications/send": { "post": { "summary": "Send a notification honouring preferences", "responses": { "200": { "description": "sent flag and receipt" } } } },
    "/notifications/daily-goal": { "post": { "summary": "Daily goal progress", "responses": { "200": { "description": "sent flag and receipt" } } } },
    "/notifications/streak": { "post": { "summary": "Streak reminder", "responses": { "200": { "description": "sent flag and receipt" } } } },
    "/notifications/lesson": { "post": { "summary": "Lesson reminder", "responses": { "200": { "description": "sent flag and receipt" } } } },
    "/notifications/achievement": { "post": { "summary": "Achievement unlocked", "responses": { "200": { "description": "sent flag and receipt" } } } },
    "/notifications/weekly-summary": { "post": { "summary": "Weekly summary (email)", "responses": { "200": { "description": "sent flag and receipt" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
