package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/auth"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/billing"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "companion dev (none)\n", out.String())
}

func TestPrintStatus(t *testing.T) {
	tier := "Premium"
	end := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		r    statusReport
		want string
	}{
		{"anonymous", statusReport{Status: auth.StatusAnonymous}, "not signed in\n"},
		{"no subscription", statusReport{Status: auth.StatusAuthenticated, Email: "ana@example.com", UserID: "u1",
			Subscription: &billing.SubscriptionData{}},
			"signed in as ana@example.com (u1)\nsubscription: none\n"},
		{"subscribed", statusReport{Status: auth.StatusAuthenticated, Email: "ana@example.com", UserID: "u1",
			Subscription: &billing.SubscriptionData{Subscribed: true, Tier: &tier, PeriodEnd: &end}},
			"signed in as ana@example.com (u1)\nsubscription: Premium until 2026-11-30\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, printStatus(&out, tc.r, false))
			assert.Equal(t, tc.want, out.String())
		})
	}
}

func TestPrintStatus_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printStatus(&out, statusReport{Status: auth.StatusAnonymous}, true))
	assert.JSONEq(t, `{"status":"anonymous"}`, out.String())
}
