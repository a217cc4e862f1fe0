package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/notify"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/middleware"
)

type SendRequest struct {
	Channel  notify.Channel         `json:"channel" binding:"required"`
	Category notify.Category        `json:"category" binding:"required"`
	Title    string                 `json:"title" binding:"required"`
	Body     string                 `json:"body"`
	Metadata map[string]interface{} `json:"metadata"`
}

type DailyGoalRequest struct {
	Goal    int `json:"goal" binding:"required,min=1"`
	Current int `json:"current" binding:"min=0"`
}

type StreakRequest struct {
	StreakDays int `json:"streak_days" binding:"min=0"`
}

type LessonRequest struct {
	LessonTitle string `json:"lesson_title" binding:"required"`
}

type AchievementRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (b *Bridge) registerNotifications(g *gin.RouterGroup) {
	g.GET("/preferences", b.Preferences)
	g.POST("/send", b.SendNotification)
	g.POST("/daily-goal", b.DailyGoal)
	g.POST("/streak", b.Streak)
	g.POST("/lesson", b.Lesson)
	g.POST("/achievement", b.Achievement)
	g.POST("/weekly-summary", b.WeeklySummary)
}

func (b *Bridge) Preferences(c *gin.Context) {
	cat := notify.Category(c.Query("category"))
	if !cat.Valid() {
		b.badRequest(c, fmt.Errorf("unknown category %q", cat))
		return
	}
	u := middleware.CurrentUser(c)
	b.reply(c, b.notify.CheckPreferences(c.Request.Context(), u.ID, cat), nil)
}

func (b *Bridge) SendNotification(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	if !req.Category.Valid() {
		b.badRequest(c, fmt.Errorf("unknown category %q", req.Category))
		return
	}
	b.send(c, notify.Request{
		UserID:   middleware.CurrentUser(c).ID,
		Channel:  req.Channel,
		Category: req.Category,
		Title:    req.Title,
		Body:     req.Body,
		Metadata: req.Metadata,
	})
}

func (b *Bridge) DailyGoal(c *gin.Context) {
	var req DailyGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	b.send(c, notify.DailyGoal(middleware.CurrentUser(c).ID, req.Goal, req.Current))
}

func (b *Bridge) Streak(c *gin.Context) {
	var req StreakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	b.send(c, notify.StreakReminder(middleware.CurrentUser(c).ID, req.StreakDays))
}

func (b *Bridge) Lesson(c *gin.Context) {
	var req LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	b.send(c, notify.LessonReminder(middleware.CurrentUser(c).ID, req.LessonTitle))
}

func (b *Bridge) Achievement(c *gin.Context) {
	var req AchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	b.send(c, notify.Achievement(middleware.CurrentUser(c).ID, req.Name, req.Description))
}

func (b *Bridge) WeeklySummary(c *gin.Context) {
	var req notify.WeeklyStats
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, err)
		return
	}
	b.send(c, notify.WeeklySummary(middleware.CurrentUser(c).ID, req))
}

// send goes through the user's preferences; a suppressed send is still a success.
func (b *Bridge) send(c *gin.Context, req notify.Request) {
	r, err := b.notify.SendWithPreferences(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, notify.ErrInvalidChannel) {
			b.badRequest(c, err)
			return
		}
		b.reply(c, nil, err)
		return
	}
	b.reply(c, gin.H{"sent": r != nil, "receipt": r}, nil)
}
