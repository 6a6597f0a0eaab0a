package consumer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/pushport/pkg/config"
	"github.com/travigo/pushport/pkg/pushport"
	"github.com/travigo/pushport/pkg/pushport/frame"
	"github.com/travigo/pushport/pkg/storage/jsonfile"
	"github.com/travigo/pushport/pkg/transport"
)

const paddingtonArrival = `<Pport ts="2023-03-01T00:05:12">
  <uR updateOrigin="TD">
    <TS rid="202303017654321" uid="C12345" ssd="2023-02-28">
      <ns5:Location tpl="PADTON" wta="00:07">
        <ns5:arr et="00:07" src="TD"/>
      </ns5:Location>
    </TS>
  </uR>
</Pport>`

type fakeSource struct {
	mu     sync.Mutex
	topics []string
	frames map[string][]frame.Frame
	err    error
}

func (s *fakeSource) Run(ctx context.Context, topic string, handle transport.Handler) error {
	s.mu.Lock()
	s.topics = append(s.topics, topic)
	s.mu.Unlock()

	for _, f := range s.frames[topic] {
		if err := handle(ctx, f); err != nil {
			return err
		}
	}

	return s.err
}

func fileConfig(directory string) *config.Config {
	cfg := config.Default()
	cfg.Output.Directory = directory
	cfg.Filter.Stations = []string{"PADTON"}

	return &cfg
}

func TestConsumerRunsEveryTopic(t *testing.T) {
	cfg := fileConfig(filepath.Join(t.TempDir(), "train_info"))

	sinks, err := BuildSinks(context.Background(), cfg)
	require.NoError(t, err)
	defer sinks.Close(context.Background())

	stats := pushport.NewStats(nil)
	processor, err := newProcessor(cfg, sinks, stats)
	require.NoError(t, err)

	source := &fakeSource{frames: map[string][]frame.Frame{
		"/topic/a": {{Payload: []byte(paddingtonArrival), MessageType: "TS"}},
		"/topic/b": {{Payload: []byte("not xml"), MessageType: "TS"}},
	}}

	consumer := &Consumer{
		Topics:    []string{"/topic/a", "/topic/b"},
		Source:    source,
		Processor: processor,
	}
	require.NoError(t, consumer.Run(context.Background()))

	assert.ElementsMatch(t, []string{"/topic/a", "/topic/b"}, source.topics)

	snapshot := stats.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Emitted["movement"])
	assert.Equal(t, uint64(1), snapshot.Failures["decode_failure"])

	rows, err := jsonfile.NewWriter(afero.NewOsFs(), cfg.Output.Directory, jsonfile.FormatJSON).ReadMovement("202303017654321")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "PADTON", rows[0].Tiploc)
}

func TestConsumerStopsOnSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("connection refused")}

	consumer := &Consumer{
		Topics:    []string{"/topic/a"},
		Source:    source,
		Processor: &pushport.Processor{},
	}

	assert.EqualError(t, consumer.Run(context.Background()), "connection refused")
}

func TestHandleDropsFilteredMessageTypes(t *testing.T) {
	stats := pushport.NewStats(nil)
	consumer := &Consumer{
		Processor:    &pushport.Processor{Stats: stats},
		MessageTypes: []string{"SC"},
	}

	require.NoError(t, consumer.Handle(context.Background(), frame.Frame{Payload: []byte(paddingtonArrival), MessageType: "TS"}))
	assert.Empty(t, stats.Snapshot().Messages)

	consumer.MessageTypes = nil
	require.NoError(t, consumer.Handle(context.Background(), frame.Frame{Payload: []byte(paddingtonArrival), MessageType: "TS"}))
	assert.Equal(t, uint64(1), stats.Snapshot().Messages["TS"])
}

func TestNewProcessorRejectsBadExpression(t *testing.T) {
	cfg := fileConfig(t.TempDir())
	cfg.Filter.Expression = "RID =="

	_, err := newProcessor(cfg, &Sinks{}, nil)
	assert.Error(t, err)
}

func TestBuildSinksRejectsUnknownSink(t *testing.T) {
	cfg := fileConfig(t.TempDir())
	cfg.Output.Movement = []string{"s3"}

	_, err := BuildSinks(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuildSinksIgnoresUnusedServiceCache(t *testing.T) {
	cfg := fileConfig(filepath.Join(t.TempDir(), "train_info"))
	cfg.Postgres.ServiceCache = true
	cfg.Redis.Address = "127.0.0.1:1"

	sinks, err := BuildSinks(context.Background(), cfg)
	require.NoError(t, err)
	defer sinks.Close(context.Background())

	assert.Len(t, sinks.Schedule, 1)
	assert.Same(t, sinks.Schedule[0], sinks.Movement[0])
	assert.NotContains(t, sinks.Checks, "redis")
	assert.Nil(t, sinks.Queues)
}
