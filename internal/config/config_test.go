package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DEFAULT_PAGE_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, "reports", cfg.GCSOutputFolder)
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestLoadRejectsBadPageSize(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DEFAULT_PAGE_SIZE", "many")

	_, err := Load()
	assert.ErrorContains(t, err, "DEFAULT_PAGE_SIZE")
}

func TestRequireOptionalIntegrations(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireSheets())
	assert.Error(t, cfg.RequireArchive())

	cfg.GoogleSheetURL = "https://docs.google.com/spreadsheets/d/abc/edit"
	cfg.GCSOutputBucket = "invoices"
	assert.NoError(t, cfg.RequireSheets())
	assert.NoError(t, cfg.RequireArchive())
}
