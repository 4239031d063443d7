package notification

import (
	"embed"
	"log/slog"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// NotificationManagerOption is a function that configures a NotificationManager
type NotificationManagerOption func(*NotificationManager) error

// WithSMTP adds an email notifier with the provided SMTP configuration and
// registers the built-in email notice templates
func WithSMTP(config SMTPConfig) NotificationManagerOption {
	return func(nm *NotificationManager) error {
		emailNotifier, err := NewEmailNotifier(config)
		if err != nil {
			return err
		}
		nm.RegisterNotifier(EmailSystem, emailNotifier)

		return nm.RegisterNotification(AccountVerificationNotice, EmailSystem, NoticeTemplate{
			Subject: "Verify Account",
			Text:    loadTemplate("templates/email/account_verification.txt"),
			Html:    loadTemplate("templates/email/account_verification.html"),
		})
	}
}

// WithNotifier registers an arbitrary notifier for a system together with
// the built-in verification notice template. Useful for tests and demos.
func WithNotifier(system NotificationSystem, notifier Notifier) NotificationManagerOption {
	return func(nm *NotificationManager) error {
		nm.RegisterNotifier(system, notifier)

		return nm.RegisterNotification(AccountVerificationNotice, system, NoticeTemplate{
			Subject: "Verify Account",
			Text:    loadTemplate("templates/email/account_verification.txt"),
		})
	}
}
