package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ThrottleBackoffUnsetVsExplicitZero(t *testing.T) {
	// 缺项：指针为 nil，由装配层填缺省窗口
	cfg, err := Load(writeConfig(t, `
rpc_endpoint: "http://127.0.0.1:8899"
submitter: "auth"
`))
	require.NoError(t, err)
	assert.Nil(t, cfg.Filler.ThrottleBackoffMs)

	// 显式 0：关闭节流，必须原样保留
	cfg, err = Load(writeConfig(t, `
rpc_endpoint: "http://127.0.0.1:8899"
submitter: "auth"
filler:
  throttle_backoff_ms: 0
`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Filler.ThrottleBackoffMs)
	assert.Equal(t, 0, *cfg.Filler.ThrottleBackoffMs)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	_, err := Load(writeConfig(t, `submitter: "auth"`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `rpc_endpoint: "http://127.0.0.1:8899"`))
	assert.Error(t, err)
}
