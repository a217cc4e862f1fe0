// Command notify sends one templated notification with the service key,
// honouring the recipient's preferences unless --force is given.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/config"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/notify"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/platform"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/logger"
)

var (
	envFile     string
	userID      string
	kind        string
	name        string
	description string
	lesson      string
	goal        int
	current     int
	days        int
	weekly      notify.WeeklyStats
	force       bool
)

var rootCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a linguaflow notification",
	Long: `Send one notification through the platform delivery function.

Kinds:
  achievement   --name --description
  daily-goal    --goal --current
  streak        --days
  lesson        --lesson
  weekly        --phrases --lessons --minutes --days

PLATFORM_SERVICE_KEY must be set.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&envFile, "env-file", ".env", "dotenv file to load")
	f.StringVar(&userID, "user", "", "recipient user id")
	f.StringVar(&kind, "kind", "", "notification kind")
	f.StringVar(&name, "name", "", "achievement name")
	f.StringVar(&description, "description", "", "achievement description")
	f.StringVar(&lesson, "lesson", "", "lesson title")
	f.IntVar(&goal, "goal", 0, "daily goal in phrases")
	f.IntVar(&current, "current", 0, "phrases practised today")
	f.IntVar(&days, "days", 0, "streak length in days")
	f.IntVar(&weekly.PhrasesLearned, "phrases", 0, "phrases learned this week")
	f.IntVar(&weekly.LessonsDone, "lessons", 0, "lessons completed this week")
	f.IntVar(&weekly.MinutesSpent, "minutes", 0, "minutes practised this week")
	f.BoolVar(&force, "force", false, "ignore notification preferences")
	_ = rootCmd.MarkFlagRequired("user")
	_ = rootCmd.MarkFlagRequired("kind")
}

func buildRequest() (notify.Request, error) {
	switch kind {
	case "achievement":
		if name == "" {
			return notify.Request{}, errors.New("--name is required")
		}
		return notify.Achievement(userID, name, description), nil
	case "daily-goal":
		if goal <= 0 {
			return notify.Request{}, errors.New("--goal must be positive")
		}
		return notify.DailyGoal(userID, goal, current), nil
	case "streak":
		return notify.StreakReminder(userID, days), nil
	case "lesson":
		if lesson == "" {
			return notify.Request{}, errors.New("--lesson is required")
		}
		return notify.LessonReminder(userID, lesson), nil
	case "weekly":
		weekly.StreakDays = days
		return notify.WeeklySummary(userID, weekly), nil
	default:
		return notify.Request{}, fmt.Errorf("unknown kind %q", kind)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return err
	}
	if cfg.Platform.ServiceKey == "" {
		return errors.New("PLATFORM_SERVICE_KEY is not set")
	}
	req, err := buildRequest()
	if err != nil {
		return err
	}

	api := platform.NewClient(cfg.Platform.URL, cfg.Platform.AnonKey, cfg.Platform.Timeout)
	d := notify.NewDispatcher(api, api, notify.StaticToken(cfg.Platform.ServiceKey))

	var receipt *notify.Receipt
	if force {
		receipt, err = d.Send(cmd.Context(), req)
	} else {
		receipt, err = d.SendWithPreferences(cmd.Context(), req)
	}
	if err != nil {
		return err
	}
	if receipt == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "suppressed by the user's preferences")
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(receipt)
}

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
