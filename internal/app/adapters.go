package app

import (
	"strings"

	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/cache"
	"github.com/charlesng35/teamhub/internal/database"
	"github.com/charlesng35/teamhub/pkg/logger"
	"github.com/charlesng35/teamhub/pkg/mail"
)

// Settings converts DatabaseConfig to the database package representation.
func (c DatabaseConfig) Settings() database.Config {
	return database.Config{
		Driver:          c.Driver,
		Path:            c.Path,
		DSN:             c.DSN,
		Host:            c.Host,
		Port:            c.Port,
		Name:            c.Name,
		User:            c.User,
		Password:        c.Password,
		Options:         c.Options,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		LogLevel:        c.LogLevel,
		SlowThreshold:   c.SlowThreshold,
	}
}

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// IssuerConfig converts AuthConfig into CredentialIssuer parameters.
func (c AuthConfig) IssuerConfig() auth.IssuerConfig {
	ttl := c.RefreshTTL
	if ttl <= 0 {
		ttl = auth.DefaultRefreshTokenTTL
	}
	return auth.IssuerConfig{RefreshTokenTTL: ttl}
}

// CodecConfig converts SessionConfig into SessionCodec parameters.
func (c SessionConfig) CodecConfig() auth.SessionCodecConfig {
	return auth.SessionCodecConfig{
		Secret:     c.Secret,
		Salt:       c.Salt,
		CookieName: strings.TrimSpace(c.CookieName),
		TTL:        c.TTL,
		Secure:     c.Secure,
	}
}

// SMTPSettings converts MailConfig to the mail package SMTP representation.
func (c MailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.driver() == "smtp",
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.From,
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}

// WebhookSettings converts MailConfig to the mail package webhook representation.
func (c MailConfig) WebhookSettings() mail.WebhookSettings {
	return mail.WebhookSettings{
		Enabled:    c.driver() == "webhook",
		URL:        c.Webhook.URL,
		AuthHeader: c.Webhook.AuthHeader,
		AuthToken:  c.Webhook.AuthToken,
		From:       c.From,
		Timeout:    c.Webhook.Timeout,
		RetryCount: c.Webhook.RetryCount,
	}
}

// Mailer builds the transport selected by mail.driver.
func (c MailConfig) Mailer() (mail.Mailer, error) {
	switch c.driver() {
	case "smtp":
		return mail.NewSMTPMailer(c.SMTPSettings())
	case "webhook":
		return mail.NewWebhookMailer(c.WebhookSettings())
	default:
		return mail.Disabled(), nil
	}
}

func (c MailConfig) driver() string {
	return strings.ToLower(strings.TrimSpace(c.Driver))
}

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// Options converts LoggingConfig into logger options.
func (c LoggingConfig) Options() logger.Options {
	return logger.Options{
		Level:  c.Level,
		Format: c.Format,
		File: logger.FileOptions{
			Path:       strings.TrimSpace(c.File.Path),
			MaxSizeMB:  c.File.MaxSizeMB,
			MaxBackups: c.File.MaxBackups,
			MaxAgeDays: c.File.MaxAgeDays,
			Compress:   c.File.Compress,
		},
	}
}
