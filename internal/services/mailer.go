package services

import (
	"context"
	"log/slog"

	"restkit/internal/models"
)

// Mailer renders the account emails and hands them to an EmailSender.
// Delivery failures are logged and never returned to the caller.
type Mailer struct {
	sender    EmailSender
	templates TemplateSource
	company   string
	host      string
	log       *slog.Logger
}

func NewMailer(sender EmailSender, templates TemplateSource, company, host string, log *slog.Logger) *Mailer {
	if templates == nil {
		templates = EmbeddedTemplates{}
	}
	return &Mailer{
		sender:    sender,
		templates: templates,
		company:   company,
		host:      host,
		log:       log,
	}
}

func (m *Mailer) SendWelcome(ctx context.Context, u *models.User) {
	m.send(ctx, TemplateWelcome, u.Email, u.Name, "Welcome to "+m.company, map[string]string{
		"name":  u.Name,
		"email": u.Email,
	})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, u *models.User, code, secret string) {
	m.send(ctx, TemplateForgotPassword, u.Email, u.Name, m.company+" password recovery", map[string]string{
		"name":   u.Name,
		"email":  u.Email,
		"code":   code,
		"secret": secret,
	})
}

// SendEmailChangeConfirmation goes to the pending address, not the current one.
func (m *Mailer) SendEmailChangeConfirmation(ctx context.Context, u *models.User, newEmail, code, secret string) {
	m.send(ctx, TemplateChangeEmail, newEmail, u.Name, "Confirm your new "+m.company+" email", map[string]string{
		"name":   u.Name,
		"email":  newEmail,
		"code":   code,
		"secret": secret,
	})
}

func (m *Mailer) send(ctx context.Context, template, to, name, subject string, vars map[string]string) {
	const op = "services.Mailer.send"

	log := m.log.With(slog.String("op", op), slog.String("template", template))

	tpl, err := m.templates.Load(ctx, template)
	if err != nil {
		log.Error("failed to load template", slog.String("error", err.Error()))
		return
	}

	vars["host"] = m.host
	vars["company"] = m.company

	if err := m.sender.Send(ctx, to, name, subject, RenderTemplate(tpl, vars)); err != nil {
		log.Error("failed to send email", slog.String("error", err.Error()))
		return
	}
	log.Debug("email sent")
}
