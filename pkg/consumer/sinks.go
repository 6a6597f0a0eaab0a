package consumer

import (
	"context"
	"fmt"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/travigo/pushport/pkg/config"
	"github.com/travigo/pushport/pkg/database"
	"github.com/travigo/pushport/pkg/elastic_client"
	"github.com/travigo/pushport/pkg/pushport/emit"
	"github.com/travigo/pushport/pkg/redis_client"
	"github.com/travigo/pushport/pkg/storage/jsonfile"
	"github.com/travigo/pushport/pkg/storage/mongodb"
	"github.com/travigo/pushport/pkg/storage/postgres"
	"github.com/travigo/pushport/pkg/storage/queue"
	"github.com/travigo/pushport/pkg/storage/search"
	"github.com/travigo/pushport/pkg/storage/servicecache"
	"github.com/travigo/pushport/pkg/storage/stream"
)

type sink interface {
	emit.ScheduleSink
	emit.MovementSink
}

// HealthCheck reports whether a backing service is reachable.
type HealthCheck = func(ctx context.Context) error

// Sinks holds the stores selected by the output configuration together
// with the connections behind them.
type Sinks struct {
	Schedule []emit.ScheduleSink
	Movement []emit.MovementSink

	Checks map[string]HealthCheck
	Queues rmq.Connection

	FileSystem afero.Fs

	redis   *redis_client.Connection
	closers []func(context.Context) error
}

// BuildSinks connects every sink named in the output configuration. Each
// named sink is connected once even when it serves both streams.
func BuildSinks(ctx context.Context, cfg *config.Config) (*Sinks, error) {
	sinks := &Sinks{
		Checks:     map[string]HealthCheck{},
		FileSystem: afero.NewOsFs(),
	}

	if cfg.Postgres.ServiceCache && !cfg.Uses(config.SinkPostgres) {
		log.Warn().Msg("Postgres service cache is enabled but no postgres sink is configured")
	}

	built := map[string]sink{}
	resolve := func(name string) (sink, error) {
		if s, ok := built[name]; ok {
			return s, nil
		}

		s, err := sinks.connect(ctx, cfg, name)
		if err != nil {
			sinks.Close(ctx)
			return nil, fmt.Errorf("%s sink: %w", name, err)
		}
		built[name] = s

		log.Info().Str("sink", name).Msg("Connected sink")

		return s, nil
	}

	for _, name := range cfg.Output.Schedule {
		s, err := resolve(name)
		if err != nil {
			return nil, err
		}
		sinks.Schedule = append(sinks.Schedule, s)
	}

	for _, name := range cfg.Output.Movement {
		s, err := resolve(name)
		if err != nil {
			return nil, err
		}
		sinks.Movement = append(sinks.Movement, s)
	}

	return sinks, nil
}

func (s *Sinks) connectRedis(ctx context.Context, cfg *config.Config) (*redis_client.Connection, error) {
	if s.redis != nil {
		return s.redis, nil
	}

	errChan := make(chan error, 10)
	go func() {
		for err := range errChan {
			log.Error().Err(err).Msg("Redis queue error")
		}
	}()

	connection, err := redis_client.Connect(ctx, cfg.Redis, errChan)
	if err != nil {
		return nil, err
	}

	s.redis = connection
	s.Queues = connection.Queues
	s.Checks["redis"] = func(ctx context.Context) error {
		return connection.Client.Ping(ctx).Err()
	}
	s.closers = append(s.closers, func(context.Context) error {
		<-connection.Queues.StopAllConsuming()
		return connection.Client.Close()
	})

	return connection, nil
}

func (s *Sinks) connect(ctx context.Context, cfg *config.Config, name string) (sink, error) {
	switch name {
	case config.SinkFile:
		writer := jsonfile.NewWriter(s.FileSystem, cfg.Output.Directory, jsonfile.Format(cfg.Output.Format))
		return emit.NewRecordSink(writer), nil

	case config.SinkPostgres:
		db, err := database.ConnectPostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}

		var services *servicecache.Cache
		if cfg.Postgres.ServiceCache {
			connection, err := s.connectRedis(ctx, cfg)
			if err != nil {
				return nil, err
			}
			services = servicecache.New(connection.Client, 0)
		}

		store := postgres.NewStore(db, services)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		s.Checks["postgres"] = sqlDB.PingContext
		s.closers = append(s.closers, func(context.Context) error { return sqlDB.Close() })

		return store, nil

	case config.SinkMongoDB:
		instance, err := database.ConnectMongoDB(ctx, cfg.MongoDB)
		if err != nil {
			return nil, err
		}

		s.Checks["mongodb"] = func(ctx context.Context) error { return instance.Client.Ping(ctx, nil) }
		s.closers = append(s.closers, instance.Disconnect)

		return mongodb.NewStore(instance.Database), nil

	case config.SinkQueue:
		connection, err := s.connectRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}

		return emit.NewRecordSink(queue.NewPublisher(connection.Queues, "pushport")), nil

	case config.SinkElastic:
		es, err := elastic_client.Connect(cfg.Elastic)
		if err != nil {
			return nil, err
		}

		s.Checks["elasticsearch"] = func(ctx context.Context) error {
			res, err := es.Ping(es.Ping.WithContext(ctx))
			if err != nil {
				return err
			}
			defer res.Body.Close()
			if res.IsError() {
				return fmt.Errorf("elasticsearch ping: %s", res.Status())
			}
			return nil
		}

		return emit.NewRecordSink(search.NewIndexer(es, cfg.Elastic.IndexPrefix)), nil

	case config.SinkKafka:
		client, err := stream.Connect(cfg.Kafka)
		if err != nil {
			return nil, err
		}

		s.Checks["kafka"] = client.Ping
		s.closers = append(s.closers, func(context.Context) error {
			client.Close()
			return nil
		})

		return emit.NewRecordSink(stream.NewWriter(client, cfg.Kafka.TopicPrefix)), nil
	}

	return nil, fmt.Errorf("unknown sink %q", name)
}

// Close releases every connection in reverse order of opening.
func (s *Sinks) Close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			log.Error().Err(err).Msg("Failed to close sink")
		}
	}
	s.closers = nil
}
