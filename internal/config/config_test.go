package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	assert.Equal(t, "9000", getEnv(key, "9000"))

	// 环境变量设置后，应优先返回环境变量
	t.Setenv(key, "8080")
	assert.Equal(t, "8080", getEnv(key, "9000"))
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_SECONDS", "7")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_FLOAT", "2.5")
	t.Setenv("TEST_LIST", " Mysuru, ,Udupi ,")

	assert.Equal(t, 42, getEnvInt("TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("TEST_BAD_INT", 1))
	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DURATION", time.Second))
	assert.Equal(t, 7*time.Second, getEnvDuration("TEST_SECONDS", time.Second))
	assert.Equal(t, time.Minute, getEnvDuration("TEST_UNSET_DURATION", time.Minute))
	assert.True(t, getEnvBool("TEST_BOOL", false))
	assert.Equal(t, 2.5, getEnvFloat("TEST_FLOAT", 1))
	assert.Equal(t, []string{"Mysuru", "Udupi"}, getEnvList("TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, getEnvList("TEST_UNSET_LIST", []string{"x"}))
}

func TestLoadReadsAuthAndPorts(t *testing.T) {
	t.Setenv("APP_PORT", "1234")
	t.Setenv("APP_BASIC_USER", "user")
	t.Setenv("APP_BASIC_PASS", "pass")
	t.Setenv("ARCHIVE_DISTRICTS", "Hassan,Kodagu")
	t.Setenv("CLASSIFIER_TIMEOUT", "2m")

	cfg := Load()
	assert.Equal(t, "1234", cfg.AppPort)
	assert.Equal(t, "user", cfg.BasicAuthUser)
	assert.Equal(t, "pass", cfg.BasicAuthPass)
	assert.Equal(t, []string{"Hassan", "Kodagu"}, cfg.ArchiveDistricts)
	assert.Equal(t, 2*time.Minute, cfg.ClassifierTimeout)
	assert.Equal(t, "district-news", cfg.KafkaTopic)
}
