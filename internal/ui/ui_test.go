package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutbox_DrainClears(t *testing.T) {
	o := NewOutbox()
	o.Notify(Error("Erro", "falhou"))
	o.Notify(Info("Info", "ok"))
	o.Assign("https://pay.example/s")

	e := o.Drain()
	require.Len(t, e.Notices, 2)
	assert.Equal(t, LevelError, e.Notices[0].Level)
	require.NotNil(t, e.Navigation)
	assert.False(t, e.Navigation.Isolated)
	assert.Equal(t, "https://pay.example/s", o.CurrentURL())

	e = o.Drain()
	assert.Empty(t, e.Notices)
	assert.NotNil(t, e.Notices)
	assert.Nil(t, e.Navigation)
}

func TestOutbox_OpenIsolatedHonoursPopupSetting(t *testing.T) {
	o := NewOutbox()
	require.NoError(t, o.OpenIsolated("https://portal.example"))
	assert.True(t, o.Drain().Navigation.Isolated)

	o.SetPopupsAllowed(false)
	assert.ErrorIs(t, o.OpenIsolated("https://portal.example"), ErrPopupBlocked)
	assert.Nil(t, o.Drain().Navigation)
}
