package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvValidate(t *testing.T) {
	valid := Env{EnvironmentName: DevelopmentEnvironmentName, HTTPPortNumber: 3000}
	require.NoError(t, valid.validate())

	unknown := valid
	unknown.EnvironmentName = "staging"
	assert.ErrorContains(t, unknown.validate(), "ENVIRONMENT_NAME")

	badPort := valid
	badPort.HTTPPortNumber = 70000
	assert.ErrorContains(t, badPort.validate(), "HTTP_PORT_NUMBER")
}

func TestNewEnvFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT_NAME", ProductionEnvironmentName)
	t.Setenv("ALLOWED_ORIGINS", "https://shop.example,https://seller.example")
	t.Setenv("PRESENCE_TTL", "2m")

	env, err := newEnv()
	require.NoError(t, err)

	assert.True(t, env.IsProduction())
	assert.Equal(t, 3000, env.HTTPPortNumber)
	assert.Equal(t, []string{"https://shop.example", "https://seller.example"}, env.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, env.PresenceTTL)
	assert.Equal(t, "order_status", env.OrderExchange)
}

func TestOriginAllowed(t *testing.T) {
	env := Env{AllowedOrigins: []string{"https://shop.example"}}

	assert.True(t, env.OriginAllowed(""))
	assert.True(t, env.OriginAllowed("https://shop.example"))
	assert.True(t, env.OriginAllowed("https://shop.example/"))
	assert.False(t, env.OriginAllowed("https://evil.example"))

	env.AllowedOrigins = []string{"*"}
	assert.True(t, env.OriginAllowed("https://evil.example"))
}

func TestNewUIDGenerator(t *testing.T) {
	sf, err := newUIDGenerator("2024-06-13", 7)
	require.NoError(t, err)

	first, err := sf.NextID()
	require.NoError(t, err)
	second, err := sf.NextID()
	require.NoError(t, err)
	assert.Greater(t, second, first)

	_, err = newUIDGenerator("13/06/2024", 7)
	assert.ErrorContains(t, err, "parse start time")

	_, err = newUIDGenerator(time.Now().AddDate(1, 0, 0).Format("2006-01-02"), 7)
	assert.Error(t, err)
}
