package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

const EMAIL_SVC = "email_svc"

const (
	tmplPasswordReset = "password_reset"
	resetLinkPath     = "/reset-password"
)

// Every mail shares the layout; each message template fills "body".
const mailTemplates = `
{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; color: #0F172A; max-width: 600px; margin: 0 auto;">
{{template "body" .}}
<p style="color: #64748B; font-size: 12px;">{{.AppName}}</p>
</body>
</html>{{end}}

{{define "password_reset"}}{{template "layout" .}}{{end}}
{{define "body"}}
<h2>Hi {{.Username}},</h2>
<p>Someone asked to reset the password of your {{.AppName}} account.</p>
<p><a href="{{.Link}}" style="padding: 10px 20px; background: #2563EB; color: #fff; text-decoration: none;">Choose a new password</a></p>
<p>The link stops working after one hour. Ignore this email if the request was not yours.</p>
{{end}}
`

type smtpSender func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailService struct {
	context.DefaultService

	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
	baseURL      string

	templates *template.Template
	send      smtpSender
}

type mailData struct {
	Subject  string
	AppName  string
	Username string
	Link     string
}

func (svc EmailService) Id() string {
	return EMAIL_SVC
}

func (svc *EmailService) Configure(ctx *context.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()

	svc.smtpHost = cfg.SMTPHost
	svc.smtpPort = cfg.SMTPPort
	svc.smtpUsername = cfg.SMTPUsername
	svc.smtpPassword = cfg.SMTPPassword
	svc.fromEmail = cfg.FromEmail
	svc.fromName = cfg.FromName
	svc.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	svc.send = smtp.SendMail

	return svc.DefaultService.Configure(ctx)
}

func (svc *EmailService) Start() error {
	if err := svc.loadTemplates(); err != nil {
		return err
	}
	if !svc.enabled() {
		log.Warn("SMTP not configured, password reset links will only be logged")
	}
	return nil
}

func (svc *EmailService) loadTemplates() error {
	tmpl, err := template.New("mail").Parse(mailTemplates)
	if err != nil {
		return fmt.Errorf("parse mail templates: %w", err)
	}
	svc.templates = tmpl
	return nil
}

func (svc *EmailService) enabled() bool {
	return svc.smtpHost != ""
}

// SendPasswordResetEmail mails the reset link. Without SMTP settings the link
// is logged instead so local development can still complete the flow.
func (svc *EmailService) SendPasswordResetEmail(email, username, token string) error {
	link := svc.baseURL + resetLinkPath + "?" + url.Values{"token": {token}}.Encode()

	if !svc.enabled() {
		log.WithFields(log.Fields{"to": email, "reset_url": link}).Info("Password reset link")
		return nil
	}

	return svc.deliver(email, tmplPasswordReset, mailData{
		Subject:  "Reset Your Password - " + svc.fromName,
		AppName:  svc.fromName,
		Username: username,
		Link:     link,
	})
}

func (svc *EmailService) deliver(to, name string, data mailData) error {
	var body bytes.Buffer
	if err := svc.templates.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("render %s mail: %w", name, err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", svc.fromName, svc.fromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", data.Subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.Write(body.Bytes())

	auth := smtp.PlainAuth("", svc.smtpUsername, svc.smtpPassword, svc.smtpHost)
	if err := svc.send(svc.smtpHost+":"+svc.smtpPort, auth, svc.fromEmail, []string{to}, msg.Bytes()); err != nil {
		log.WithError(err).WithField("to", to).Error("Failed to send email")
		return fmt.Errorf("send %s mail: %w", name, err)
	}

	log.WithFields(log.Fields{"to": to, "template": name}).Info("Email sent")
	return nil
}
