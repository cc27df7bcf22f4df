package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/loan-tracker/internal/config"
	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/repository"
	"github.com/segyhp/loan-tracker/internal/service"
	"github.com/segyhp/loan-tracker/pkg/logger"
	"github.com/segyhp/loan-tracker/pkg/utils"
)

const jobTimeout = time.Minute

// reporter is the part of the loan service the jobs use
type reporter interface {
	DailyReport(ctx context.Context, reminderDays int) (*domain.DailyReport, error)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log.Info("Starting loan scheduler...")

	loanRepo, closeStore, err := repository.Open(context.Background(), cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize loan store: %v", err)
	}
	defer closeStore()

	loanService := service.NewLoanService(loanRepo, log, cfg.Location())

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.Location()))

	if err := setupCronJobs(c, cfg, loanService, log); err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}

	c.Start()
	log.Info("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, svc reporter, log logrus.FieldLogger) error {
	if _, err := c.AddFunc(cfg.Scheduler.DigestSpec, func() {
		runOverdueDigest(svc, log.WithField("job", "overdue_digest"))
	}); err != nil {
		return err
	}

	days := cfg.Scheduler.ReminderDays
	if _, err := c.AddFunc(cfg.Scheduler.ReminderSpec, func() {
		runDueReminders(svc, days, log.WithField("job", "due_reminder"))
	}); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"digest":   cfg.Scheduler.DigestSpec,
		"reminder": cfg.Scheduler.ReminderSpec,
	}).Info("Cron jobs scheduled successfully")
	return nil
}

// runOverdueDigest logs the status counts and every overdue loan
func runOverdueDigest(svc reporter, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := svc.DailyReport(ctx, 0)
	if err != nil {
		log.WithError(err).Error("daily report failed")
		return
	}

	log.WithFields(logrus.Fields{
		"date":    utils.FormatDate(report.Date),
		"pending": report.Counts.Pending,
		"paid":    report.Counts.Paid,
		"overdue": report.Counts.Overdue,
	}).Info("overdue digest")

	for _, loan := range report.Overdue {
		log.WithFields(loanFields(loan)).Warn("loan overdue")
	}
}

// runDueReminders logs a reminder for each loan falling due soon
func runDueReminders(svc reporter, days int, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := svc.DailyReport(ctx, days)
	if err != nil {
		log.WithError(err).Error("daily report failed")
		return
	}

	for _, loan := range report.DueSoon {
		log.WithFields(loanFields(loan)).Info("payment due soon")
	}
	log.WithField("count", len(report.DueSoon)).Info("due reminders sent")
}

func loanFields(loan *domain.Loan) logrus.Fields {
	return logrus.Fields{
		"loan_id":  loan.ID,
		"name":     loan.Name,
		"phone":    loan.PhoneNumber,
		"amount":   loan.Amount.String(),
		"due_date": utils.FormatDate(loan.DueDate),
	}
}
