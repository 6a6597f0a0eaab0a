package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"/topic/darwin.pushport-v16"}, config.Stomp.Topics)
	assert.Equal(t, 25*time.Second, config.Stomp.HeartBeat)
	assert.Equal(t, 60*time.Second, config.Stomp.ReconnectMax)
	assert.Equal(t, "json", config.Output.Format)
	assert.True(t, config.Uses(SinkFile))
	assert.False(t, config.Uses(SinkKafka))
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pushport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stomp:
  address: localhost:61613
  topics: [/topic/darwin.pushport-v16, /topic/darwin.status]
  heartbeat: 10s
filter:
  stations: [PADTON]
  expression: 'Stream != "type"'
output:
  schedule: [file, postgres]
  movement: [mongodb]
  format: csv
  directory: /var/lib/pushport
`), 0o600))

	t.Setenv("PUSHPORT_STATIONS", "PADTON, EUSTON")
	t.Setenv("DARWIN_USERNAME", "darwin-user")
	t.Setenv("PUSHPORT_REDIS_DATABASE", "3")

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:61613", config.Stomp.Address)
	assert.Len(t, config.Stomp.Topics, 2)
	assert.Equal(t, 10*time.Second, config.Stomp.HeartBeat)
	assert.Equal(t, "darwin-user", config.Stomp.Username)
	assert.Equal(t, []string{"PADTON", "EUSTON"}, config.Filter.Stations)
	assert.Equal(t, `Stream != "type"`, config.Filter.Expression)
	assert.Equal(t, []string{SinkFile, SinkPostgres}, config.Output.Schedule)
	assert.True(t, config.Uses(SinkMongoDB))
	assert.Equal(t, 3, config.Redis.Database)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"unknown sink":   "output:\n  schedule: [s3]\n",
		"no topics":      "stomp:\n  topics: []\n",
		"bad format":     "output:\n  format: xml\n",
		"bad address":    "stomp:\n  address: nowhere\n",
		"station length": "filter:\n  stations: [PADDINGTON]\n",
		"message type":   "filter:\n  message_types: [XX]\n",
		"elastic url":    "elasticsearch:\n  addresses: ['not a url']\n",
		"not yaml":       "stomp: [",
	}

	for name, document := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pushport.yaml")
			require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRedisDatabaseMustBeNumeric(t *testing.T) {
	t.Setenv("PUSHPORT_REDIS_DATABASE", "three")

	_, err := Load("")
	assert.Error(t, err)
}
