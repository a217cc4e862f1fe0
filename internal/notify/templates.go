package notify

import (
	"context"
	"fmt"
)

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// Achievement announces an unlocked achievement.
func Achievement(userID, name, description string) Request {
	return Request{
		UserID:   userID,
		Channel:  ChannelBoth,
		Category: CategoryAchievement,
		Title:    "🏆 Nova conquista: " + name,
		Body:     description,
		Metadata: map[string]interface{}{"achievement": name},
	}
}

// DailyGoal reports progress towards today's goal of phrases.
func DailyGoal(userID string, goal, current int) Request {
	r := Request{
		UserID:   userID,
		Channel:  ChannelBoth,
		Category: CategoryDailyGoal,
		Metadata: map[string]interface{}{"goal": goal, "current": current},
	}
	if current >= goal {
		r.Title = "🎯 Meta diária alcançada!"
		r.Body = fmt.Sprintf("Parabéns! Você praticou %s hoje.", plural(current, "frase", "frases"))
		return r
	}
	remaining := goal - current
	verb := "Faltam"
	if remaining == 1 {
		verb = "Falta"
	}
	r.Title = "📚 Continue praticando!"
	r.Body = fmt.Sprintf("%s %s para alcançar sua meta diária.", verb, plural(remaining, "frase", "frases"))
	return r
}

// StreakReminder warns that today's practice keeps the streak alive.
func StreakReminder(userID string, streakDays int) Request {
	return Request{
		UserID:   userID,
		Channel:  ChannelBoth,
		Category: CategoryStreakReminder,
		Title:    "🔥 Não perca sua sequência!",
		Body:     fmt.Sprintf("Você está com uma sequência de %s. Pratique hoje para mantê-la!", plural(streakDays, "dia", "dias")),
		Metadata: map[string]interface{}{"streak": streakDays},
	}
}

// LessonReminder points the learner at their next lesson.
func LessonReminder(userID, lessonTitle string) Request {
	return Request{
		UserID:   userID,
		Channel:  ChannelBoth,
		Category: CategoryLessonReminder,
		Title:    "📖 Hora de estudar!",
		Body:     fmt.Sprintf("Sua próxima lição \"%s\" está esperando por você.", lessonTitle),
		Metadata: map[string]interface{}{"lesson": lessonTitle},
	}
}

// WeeklyStats summarizes one week of practice.
type WeeklyStats struct {
	PhrasesLearned int `json:"phrasesLearned"`
	LessonsDone    int `json:"lessonsCompleted"`
	MinutesSpent   int `json:"minutesSpent"`
	StreakDays     int `json:"streakDays"`
}

// WeeklySummary is email only.
func WeeklySummary(userID string, s WeeklyStats) Request {
	return Request{
		UserID:   userID,
		Channel:  ChannelEmail,
		Category: CategoryWeeklySummary,
		Title:    "📊 Seu resumo semanal",
		Body: fmt.Sprintf("Nesta semana você aprendeu %s, concluiu %s e estudou %s. Sequência atual: %s.",
			plural(s.PhrasesLearned, "frase", "frases"),
			plural(s.LessonsDone, "lição", "lições"),
			plural(s.MinutesSpent, "minuto", "minutos"),
			plural(s.StreakDays, "dia", "dias")),
		Metadata: map[string]interface{}{
			"phrasesLearned":   s.PhrasesLearned,
			"lessonsCompleted": s.LessonsDone,
			"minutesSpent":     s.MinutesSpent,
			"streakDays":       s.StreakDays,
		},
	}
}

func (d *Dispatcher) SendAchievement(ctx context.Context, userID, name, description string) (*Receipt, error) {
	return d.SendWithPreferences(ctx, Achievement(userID, name, description))
}

func (d *Dispatcher) SendDailyGoalReminder(ctx context.Context, userID string, goal, current int) (*Receipt, error) {
	return d.SendWithPreferences(ctx, DailyGoal(userID, goal, current))
}

func (d *Dispatcher) SendStreakReminder(ctx context.Context, userID string, streakDays int) (*Receipt, error) {
	return d.SendWithPreferences(ctx, StreakReminder(userID, streakDays))
}

func (d *Dispatcher) SendLessonReminder(ctx context.Context, userID, lessonTitle string) (*Receipt, error) {
	return d.SendWithPreferences(ctx, LessonReminder(userID, lessonTitle))
}

func (d *Dispatcher) SendWeeklySummary(ctx context.Context, userID string, s WeeklyStats) (*Receipt, error) {
	return d.SendWithPreferences(ctx, WeeklySummary(userID, s))
}
