package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/app"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/auth"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/billing"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session and subscription status",
	Long: `Restore the stored session (refreshing it when it is close to
expiry) and, when signed in, fetch the current subscription status.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the status as JSON")
	rootCmd.AddCommand(statusCmd)
}

type statusReport struct {
	Status       auth.Status              `json:"status"`
	Email        string                   `json:"email,omitempty"`
	UserID       string                   `json:"userId,omitempty"`
	Subscription *billing.SubscriptionData `json:"subscription,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Manager.Start(ctx); err != nil {
		return err
	}
	st := a.Manager.Snapshot()
	report := statusReport{Status: st.Status}
	if st.User != nil {
		report.Email = st.User.Email
		report.UserID = st.User.ID
		if err := a.Tracker.Refresh(ctx); err != nil {
			return err
		}
		data := a.Tracker.Data()
		report.Subscription = &data
	}
	return printStatus(cmd.OutOrStdout(), report, statusJSON)
}

func printStatus(w io.Writer, r statusReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	if r.Status != auth.StatusAuthenticated {
		fmt.Fprintln(w, "not signed in")
		return nil
	}
	fmt.Fprintf(w, "signed in as %s (%s)\n", r.Email, r.UserID)
	sub := r.Subscription
	if sub == nil || !sub.Subscribed {
		fmt.Fprintln(w, "subscription: none")
		return nil
	}
	tier := "unknown"
	if sub.Tier != nil {
		tier = *sub.Tier
	}
	fmt.Fprintf(w, "subscription: %s", tier)
	if sub.PeriodEnd != nil {
		fmt.Fprintf(w, " until %s", sub.PeriodEnd.Format("2006-01-02"))
	}
	fmt.Fprintln(w)
	return nil
}
