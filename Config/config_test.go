package Config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "TAX_RATE", "CURRENCY", "REMINDER_SCHEDULE", "SMTP_PORT", "TOKEN_TTL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "0 0 8 * * *", cfg.ReminderSchedule)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown driver", "DB_DRIVER", "oracle"},
		{"negative tax", "TAX_RATE", "-0.1"},
		{"tax above one", "TAX_RATE", "1.5"},
		{"tax not a number", "TAX_RATE", "ten"},
		{"smtp port", "SMTP_PORT", "abc"},
		{"token ttl", "TOKEN_TTL", "forever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestRequireServe(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Error(t, cfg.RequireServe())

	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.RequireServe())
}

func TestFeatureToggles(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.EmailEnabled())
	assert.False(t, cfg.SlackEnabled())

	cfg.SMTPServer, cfg.SMTPFromEmail = "smtp.example.com", "billing@example.com"
	cfg.SlackBotToken, cfg.SlackChannel = "xoxb-1", "#billing"
	assert.True(t, cfg.EmailEnabled())
	assert.True(t, cfg.SlackEnabled())
}
