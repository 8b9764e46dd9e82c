package services

import (
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPasswordResetEmail(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	svc := &EmailService{
		smtpHost:  "smtp.example.com",
		smtpPort:  "587",
		fromEmail: "no-reply@example.com",
		fromName:  "IDO Platform",
		baseURL:   "https://app.example.com",
		send: func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
			gotAddr, gotTo, gotMsg = addr, to, string(msg)
			return nil
		},
	}
	require.NoError(t, svc.loadTemplates())

	require.NoError(t, svc.SendPasswordResetEmail("alice@example.com", "alice", "tok-123"))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Reset Your Password - IDO Platform")
	assert.Contains(t, gotMsg, "https://app.example.com/reset-password?token=tok-123")
	assert.Contains(t, gotMsg, "Hi alice,")
}

func TestSendPasswordResetEmailWithoutSMTP(t *testing.T) {
	called := false
	svc := &EmailService{
		baseURL: "http://localhost:3000",
		send: func(string, smtp.Auth, string, []string, []byte) error {
			called = true
			return nil
		},
	}
	require.NoError(t, svc.loadTemplates())

	assert.NoError(t, svc.SendPasswordResetEmail("bob@example.com", "bob", "tok"))
	assert.False(t, called)
}
