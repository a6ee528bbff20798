package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644), "无法写入临时配置文件")
	return configPath
}

// TestLoadConfigFromYAML 验证文件中的值覆盖默认值，未出现的字段保持默认
func TestLoadConfigFromYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  address: ":9090"
  api_keys: ["k1", "k2"]
keywords:
  keywords_path: "/data/skills.xlsx"
  reload_per_request: true
store:
  driver: redis
redis:
  address: "redis:6379"
  key_prefix: "cv"
parser:
  pdf_backend: plain
`)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":9090", config.Server.Address)
	assert.Equal(t, []string{"k1", "k2"}, config.Server.APIKeys)
	assert.Equal(t, "/data/skills.xlsx", config.Keywords.KeywordsPath)
	assert.True(t, config.Keywords.ReloadPerRequest)
	assert.Equal(t, StoreDriverRedis, config.Store.Driver)
	assert.Equal(t, "redis:6379", config.Redis.Address)
	assert.Equal(t, "cv", config.Redis.KeyPrefix)
	assert.Equal(t, PDFBackendPlain, config.Parser.PDFBackend)

	// 默认值
	assert.Equal(t, 10, config.Server.MaxUploadMB)
	assert.Equal(t, int64(10<<20), config.MaxUploadBytes())
	assert.Equal(t, 10, config.Redis.PoolSize)
	assert.True(t, config.Parser.EnableDocx)
	assert.Equal(t, "resume.parsed", config.RabbitMQ.ParsedRoutingKey)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
store:
  driver: memory
keywords:
  keywords_path: "from-file.csv"
`)
	t.Setenv("RESUME_KEYWORDS_PATH", "/env/keywords.csv")
	t.Setenv("RESUME_CREDENTIALS_PATH", "/env/creds.json")
	t.Setenv("RESUME_STORE_DRIVER", "firestore")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "demo-project")
	t.Setenv("RESUME_API_KEYS", " a , ,b ")
	t.Setenv("RESUME_RELOAD_KEYWORDS", "true")

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/env/keywords.csv", config.Keywords.KeywordsPath)
	assert.Equal(t, "/env/creds.json", config.Firestore.CredentialsPath)
	assert.Equal(t, StoreDriverFirestore, config.Store.Driver)
	assert.Equal(t, "demo-project", config.Firestore.ProjectID)
	assert.Equal(t, []string{"a", "b"}, config.Server.APIKeys)
	assert.True(t, config.Keywords.ReloadPerRequest)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "指定的文件不存在时应报错")

	_, err = LoadConfig(writeConfig(t, "server: [not a map"))
	assert.Error(t, err, "YAML 语法错误应报错")

	_, err = LoadConfig(writeConfig(t, "store:\n  driver: cassandra\n"))
	assert.ErrorContains(t, err, "cassandra")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Store.Driver = StoreDriverMemory
		return c
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"缺少关键词文件", func(c *Config) { c.Keywords.KeywordsPath = "" }},
		{"firestore缺少凭据", func(c *Config) { c.Store.Driver = StoreDriverFirestore }},
		{"redis缺少地址", func(c *Config) { c.Store.Driver = StoreDriverRedis; c.Redis.Address = "" }},
		{"mysql缺少库名", func(c *Config) { c.Store.Driver = StoreDriverMySQL; c.MySQL.Host = "db" }},
		{"未知PDF后端", func(c *Config) { c.Parser.PDFBackend = "tika" }},
		{"minio缺少桶名", func(c *Config) { c.MinIO.Enabled = true; c.MinIO.BucketName = "" }},
		{"tracing缺少地址", func(c *Config) { c.Tracing.Enabled = true }},
		{"上传上限为0", func(c *Config) { c.Server.MaxUploadMB = 0 }},
		{"限流速率为负", func(c *Config) { c.Server.UploadRatePerMinute = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestCreateSampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))
	assert.Error(t, CreateSampleConfig(path), "不会覆盖已存在的文件")

	t.Setenv("RESUME_STORE_DRIVER", "memory")
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Address, config.Server.Address)
	assert.Equal(t, DefaultConfig().Redis, config.Redis)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("soon", time.Minute))
}
