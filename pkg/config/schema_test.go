package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSchemaDefaults(t *testing.T) {
	cfg := Default()
	assert.NoError(t, ValidateSchema(&cfg))
}

func TestValidateSchemaRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		hint   string
	}{
		{"zero workers", func(c *Config) { c.Publish.Workers = 0 }, "workers"},
		{"unknown backend", func(c *Config) { c.Git.Backend = "hg" }, "backend"},
		{"empty commit message", func(c *Config) { c.Publish.CommitMessage = "" }, "commit_message"},
		{"empty author", func(c *Config) { c.Git.AuthorEmail = "" }, "author_email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := ValidateSchema(&cfg)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.hint)
		})
	}
}

func TestValidateConfigDataMalformed(t *testing.T) {
	err := ValidateConfigData([]byte("{not json"))
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "publish.root", Value: "site", Reason: "must be an absolute path"}
	assert.Equal(t, `invalid configuration: publish.root "site" must be an absolute path`, err.Error())

	err = &ValidationError{Field: "publish.root", Reason: "is required"}
	assert.Equal(t, "invalid configuration: publish.root is required", err.Error())
}
