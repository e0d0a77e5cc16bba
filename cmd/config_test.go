package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-scorer/internal/blob"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()

	v := viper.New()
	setDefaults(v)
	if yaml != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	}
	return v
}

func TestGetConfigDefaults(t *testing.T) {
	t.Parallel()

	config, err := getConfig(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, config.Analysis.Timeout)
	assert.Equal(t, 50, config.Analysis.MinTextLength)
	assert.Equal(t, 1000, config.Analysis.PreviewLength)
	assert.True(t, config.Fetch.Enabled)
	assert.Equal(t, 5*time.Second, config.Fetch.Timeout)
	assert.Equal(t, storageNone, config.Storage.Backend)
	assert.Equal(t, ":8080", config.Server.Listen)

	names := make([]string, 0, len(config.Providers))
	for _, p := range config.Providers {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"gemini", "openrouter", "ollama", "anthropic"}, names)
}

func TestGetConfigFromYAML(t *testing.T) {
	t.Parallel()

	config, err := getConfig(newViper(t, `
analysis:
  timeout: 30s
providers:
  - name: local-llama
    kind: openai-compatible
    base-url: http://localhost:11434/v1
    model: llama3
    api-key: none
    headers:
      X-Title: test
storage:
  backend: local
  local:
    dir: /tmp/resumes
`))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, config.Analysis.Timeout)
	require.Len(t, config.Providers, 1)
	assert.Equal(t, "local-llama", config.Providers[0].Name)
	assert.Equal(t, "http://localhost:11434/v1", config.Providers[0].BaseURL)
	assert.Equal(t, storageLocal, config.Storage.Backend)
	assert.Equal(t, "/tmp/resumes", config.Storage.Local.Dir)
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	valid := func(t *testing.T) *Config {
		config, err := getConfig(newViper(t, ""))
		require.NoError(t, err)
		return config
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "unknown provider kind", mutate: func(c *Config) { c.Providers[0].Kind = "mistral" }, wantErr: "oneof"},
		{name: "missing provider name", mutate: func(c *Config) { c.Providers[1].Name = "" }, wantErr: "required"},
		{name: "temperature out of range", mutate: func(c *Config) { c.Providers[0].Temperature = 3 }, wantErr: "lte"},
		{name: "bad base url", mutate: func(c *Config) { c.Providers[1].BaseURL = "not a url" }, wantErr: "url"},
		{name: "zero timeout", mutate: func(c *Config) { c.Analysis.Timeout = 0 }, wantErr: "gt"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Backend = "gcs" }, wantErr: "oneof"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Backend = storageS3 }, wantErr: "storage.s3.bucket"},
		{name: "local without dir", mutate: func(c *Config) {
			c.Storage.Backend = storageLocal
			c.Storage.Local.Dir = " "
		}, wantErr: "storage.local.dir"},
		{name: "duplicate provider", mutate: func(c *Config) { c.Providers[1].Name = c.Providers[0].Name }, wantErr: "duplicate provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			config := valid(t)
			tt.mutate(config)

			err := validateConfig(config)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildProvidersSkipsMissingKeys(t *testing.T) {
	t.Setenv("RESUME_SCORER_TEST_MISSING_KEY", "")

	core, logs := observer.New(zapcore.WarnLevel)
	providers, statuses := buildProviders(context.Background(), []ProviderConfig{
		{Name: "absent", Kind: kindOpenAICompatible, BaseURL: "http://127.0.0.1:1", APIKeyEnv: "RESUME_SCORER_TEST_MISSING_KEY"},
		{Name: "inline", Kind: kindOpenAICompatible, BaseURL: "http://127.0.0.1:1", Model: "llama3", APIKey: "sk-test"},
		{Name: "claude", Kind: kindAnthropic, APIKey: "sk-ant-test"},
	}, 100, zap.New(core))

	require.Len(t, providers, 2)
	assert.Equal(t, "inline", providers[0].Name())
	assert.Equal(t, "claude", providers[1].Name())

	require.Len(t, statuses, 3)
	assert.Error(t, statuses[0].Err)
	assert.NoError(t, statuses[1].Err)
	assert.Equal(t, 1, logs.FilterMessage("skipping provider without api key").Len())
}

func TestBuildProviderUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := buildProvider(context.Background(), ProviderConfig{Name: "x", Kind: "mystery", APIKey: "k"}, 0, nil)
	assert.ErrorContains(t, err, "unknown provider kind")
}

func TestBuildStore(t *testing.T) {
	t.Parallel()

	none, err := buildStore(context.Background(), StorageConfig{Backend: storageNone})
	require.NoError(t, err)
	assert.Nil(t, none)

	local, err := buildStore(context.Background(), StorageConfig{Backend: storageLocal, Local: LocalStorageConfig{Dir: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &blob.Local{}, local)

	_, err = buildStore(context.Background(), StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}

func newJobCmd() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	c.Flags().String("job", "", "")
	c.Flags().String("job-file", "", "")
	return c
}

func TestJobDescription(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jobFile := filepath.Join(dir, "jd.txt")
	require.NoError(t, os.WriteFile(jobFile, []byte("Go engineer from file"), 0o600))

	stdinFile := filepath.Join(dir, "stdin.txt")
	require.NoError(t, os.WriteFile(stdinFile, []byte("Go engineer from stdin"), 0o600))

	t.Run("flag", func(t *testing.T) {
		c := newJobCmd()
		require.NoError(t, c.Flags().Set("job", "Go engineer from flag"))

		got, err := jobDescription(c, nil)
		require.NoError(t, err)
		assert.Equal(t, "Go engineer from flag", got)
	})

	t.Run("file", func(t *testing.T) {
		c := newJobCmd()
		require.NoError(t, c.Flags().Set("job-file", jobFile))

		got, err := jobDescription(c, nil)
		require.NoError(t, err)
		assert.Equal(t, "Go engineer from file", got)
	})

	t.Run("piped stdin", func(t *testing.T) {
		stdin, err := os.Open(stdinFile)
		require.NoError(t, err)
		defer stdin.Close()

		got, err := jobDescription(newJobCmd(), stdin)
		require.NoError(t, err)
		assert.Equal(t, "Go engineer from stdin", got)
	})

	t.Run("missing file", func(t *testing.T) {
		c := newJobCmd()
		require.NoError(t, c.Flags().Set("job-file", filepath.Join(dir, "absent.txt")))

		_, err := jobDescription(c, nil)
		assert.Error(t, err)
	})
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	assert.Equal(t, "resume-scorer version: unknown\n", out.String())
}
