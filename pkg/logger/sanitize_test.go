package logger_test

import (
	"testing"

	"github.com/avercroft/kennelgate/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestSanitizedEmail(t *testing.T) {
	assert.Equal(t, "j***@*******.com", logger.SanitizedEmail("jane@example.com"))
	assert.Equal(t, "[invalid-email]", logger.SanitizedEmail("not-an-email"))
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, logger.SanitizeQueryString("reset_code=123456"))
	assert.True(t, logger.SanitizeQueryString("password=hunter2"))
	assert.False(t, logger.SanitizeQueryString("page=2&limit=10"))
	assert.False(t, logger.SanitizeQueryString(""))
}
