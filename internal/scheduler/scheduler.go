// Package scheduler runs the recurring email jobs: the weekly questionnaire
// reminder and the daily weather digest.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"campuswell/internal/config"
	"campuswell/internal/mailer"
	"campuswell/internal/middleware"
	"campuswell/internal/models"
	"campuswell/internal/observability"
	"campuswell/internal/repository"
)

const (
	jobReminder = "questionnaire_reminder"
	jobWeather  = "weather_digest"
)

// Scheduler owns the cron runner and the two jobs. Jobs fire at fixed local
// times in the configured timezone; runs are not persisted, so a missed
// window (downtime at fire time) is simply skipped until the next one.
type Scheduler struct {
	cron              *cron.Cron
	mailer            mailer.Mailer
	userRepo          repository.UserRepository
	questionnaireRepo repository.QuestionnaireRepository
	weatherRepo       repository.WeatherRepository
	location          *time.Location

	now func() time.Time
}

// New builds a Scheduler. The timezone comes from CRON_TIMEZONE; an
// unknown zone falls back to UTC with a warning rather than failing boot.
func New(
	cfg *config.Config,
	m mailer.Mailer,
	userRepo repository.UserRepository,
	questionnaireRepo repository.QuestionnaireRepository,
	weatherRepo repository.WeatherRepository,
) *Scheduler {
	location, err := time.LoadLocation(cfg.CronTimezone)
	if err != nil {
		middleware.Logger.Warn("unknown cron timezone, falling back to UTC",
			"timezone", cfg.CronTimezone, "error", err)
		location = time.UTC
	}

	return &Scheduler{
		cron:              cron.New(cron.WithLocation(location)),
		mailer:            m,
		userRepo:          userRepo,
		questionnaireRepo: questionnaireRepo,
		weatherRepo:       weatherRepo,
		location:          location,
		now:               time.Now,
	}
}

// Start registers both jobs and starts the cron runner.
func (s *Scheduler) Start(cfg *config.Config) error {
	if _, err := s.cron.AddFunc(cfg.ReminderCron, func() { s.RunReminderJob(context.Background()) }); err != nil {
		return fmt.Errorf("register reminder job: %w", err)
	}
	if _, err := s.cron.AddFunc(cfg.WeatherCron, func() { s.RunWeatherJob(context.Background()) }); err != nil {
		return fmt.Errorf("register weather job: %w", err)
	}

	s.cron.Start()
	middleware.Logger.Info("scheduler started",
		"reminder_cron", cfg.ReminderCron,
		"weather_cron", cfg.WeatherCron,
		"timezone", s.location.String())
	return nil
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunReminderJob emails every enabled student who has not submitted this
// week's questionnaire. A failure for one recipient is logged and counted
// but never aborts the rest of the batch.
func (s *Scheduler) RunReminderJob(ctx context.Context) {
	week := models.WeekStartFor(s.now().In(s.location))

	users, err := s.questionnaireRepo.UsersWithoutResponse(ctx, week)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "reminder job: failed to list recipients", "error", err)
		observability.JobRuns.WithLabelValues(jobReminder, "error").Inc()
		return
	}

	sent, failed := 0, 0
	for _, user := range users {
		body := reminderBody(user.Username)
		if err := s.mailer.Send(user.Email, "Votre questionnaire bien-être de la semaine", body); err != nil {
			middleware.Logger.WarnContext(ctx, "reminder job: send failed",
				"user_id", user.ID, "error", err)
			observability.JobEmails.WithLabelValues(jobReminder, "error").Inc()
			failed++
			continue
		}
		observability.JobEmails.WithLabelValues(jobReminder, "sent").Inc()
		sent++
	}

	observability.JobRuns.WithLabelValues(jobReminder, "success").Inc()
	middleware.Logger.InfoContext(ctx, "reminder job finished",
		"week_start", week.Format("2006-01-02"), "sent", sent, "failed", failed)
}

// RunWeatherJob emails every enabled user the day's weather recommendations.
// Days with no stored recommendation produce no mail at all.
func (s *Scheduler) RunWeatherJob(ctx context.Context) {
	day := s.now().In(s.location).Format("2006-01-02")

	recommendations, err := s.weatherRepo.ListForDay(ctx, day)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "weather job: failed to load recommendations", "error", err)
		observability.JobRuns.WithLabelValues(jobWeather, "error").Inc()
		return
	}
	if len(recommendations) == 0 {
		middleware.Logger.InfoContext(ctx, "weather job: no recommendations for today", "day", day)
		observability.JobRuns.WithLabelValues(jobWeather, "skipped").Inc()
		return
	}

	body := weatherBody(day, recommendations)

	sent, failed := 0, 0
	offset := 0
	const pageSize = 100
	for {
		users, err := s.userRepo.List(ctx, "", pageSize, offset)
		if err != nil {
			middleware.Logger.ErrorContext(ctx, "weather job: failed to list users", "error", err)
			observability.JobRuns.WithLabelValues(jobWeather, "error").Inc()
			return
		}
		if len(users) == 0 {
			break
		}
		for _, user := range users {
			if user.Disabled {
				continue
			}
			if err := s.mailer.Send(user.Email, fmt.Sprintf("Météo et bien-être du %s", day), body); err != nil {
				middleware.Logger.WarnContext(ctx, "weather job: send failed",
					"user_id", user.ID, "error", err)
				observability.JobEmails.WithLabelValues(jobWeather, "error").Inc()
				failed++
				continue
			}
			observability.JobEmails.WithLabelValues(jobWeather, "sent").Inc()
			sent++
		}
		offset += pageSize
	}

	observability.JobRuns.WithLabelValues(jobWeather, "success").Inc()
	middleware.Logger.InfoContext(ctx, "weather job finished", "day", day, "sent", sent, "failed", failed)
}

func reminderBody(username string) string {
	return fmt.Sprintf(
		`<p>Bonjour %s,</p>
<p>Vous n'avez pas encore rempli votre questionnaire bien-être de la semaine.
Cela ne prend que deux minutes et nous aide à mieux vous accompagner.</p>
<p><a href="https://campuswell.example.fr/questionnaire">Répondre au questionnaire</a></p>`,
		username)
}

func weatherBody(day string, recs []*models.WeatherRecommendation) string {
	body := fmt.Sprintf("<p>Votre météo bien-être du %s :</p><ul>", day)
	for _, r := range recs {
		body += fmt.Sprintf("<li><strong>%s</strong> : %s, %.1f°C. %s</li>",
			r.Slot, r.Condition, r.Temperature, r.Recommendation)
	}
	return body + "</ul>"
}
