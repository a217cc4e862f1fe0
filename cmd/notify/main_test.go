package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/notify"
)

func TestBuildRequest(t *testing.T) {
	userID = "u1"
	defer func() { kind, name, goal, current, lesson = "", "", 0, 0, "" }()

	kind, goal, current = "daily-goal", 5, 3
	req, err := buildRequest()
	require.NoError(t, err)
	assert.Equal(t, notify.CategoryDailyGoal, req.Category)
	assert.Equal(t, "u1", req.UserID)

	kind = "weekly"
	req, err = buildRequest()
	require.NoError(t, err)
	assert.Equal(t, notify.ChannelEmail, req.Channel)

	kind, name = "achievement", ""
	_, err = buildRequest()
	assert.Error(t, err)

	kind = "lesson"
	_, err = buildRequest()
	assert.Error(t, err)

	kind = "bogus"
	_, err = buildRequest()
	assert.EqualError(t, err, `unknown kind "bogus"`)
}
