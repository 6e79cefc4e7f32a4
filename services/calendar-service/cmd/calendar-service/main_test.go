package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/apptcalendar/libs/httpx"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.NotNil(t, root.RunE)
}

func TestLoadSettingsEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "business.yaml")
	require.NoError(t, os.WriteFile(path, []byte("businessName: Salon\nmaxAppointmentsPerSlot: 3\n"), 0o600))

	t.Setenv("BUSINESS_SETTINGS_FILE", path)
	t.Setenv("MAX_APPOINTMENTS_PER_SLOT", "")
	t.Setenv("APPOINTMENT_TIMEZONE", "")
	s, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, "Salon", s.BusinessName)
	assert.Equal(t, 3, s.MaxAppointmentsPerSlot)
	assert.Equal(t, "Europe/Istanbul", s.Timezone)

	t.Setenv("MAX_APPOINTMENTS_PER_SLOT", "5")
	t.Setenv("APPOINTMENT_TIMEZONE", "UTC")
	s, err = loadSettings()
	require.NoError(t, err)
	assert.Equal(t, 5, s.MaxAppointmentsPerSlot)
	assert.Equal(t, "UTC", s.Timezone)

	t.Setenv("APPOINTMENT_TIMEZONE", "Mars/Olympus")
	_, err = loadSettings()
	assert.Error(t, err)
}

func TestStackOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := stack(mark("limit"), mark("secret"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/appointments", nil))
	assert.Equal(t, []string{"limit", "secret", "handler"}, order)
}

func TestWebhookLimiterInMemory(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("WEBHOOK_RATE_LIMIT_PER_MINUTE", "1")
	mw, rdb, err := webhookLimiter(nil)
	require.NoError(t, err)
	assert.Nil(t, rdb)

	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))
	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/appointments", nil))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/appointments", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
