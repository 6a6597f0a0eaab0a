package consumer

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/kr/pretty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/pushport/pkg/api"
	"github.com/travigo/pushport/pkg/config"
	"github.com/travigo/pushport/pkg/pushport"
	"github.com/travigo/pushport/pkg/pushport/emit"
	"github.com/travigo/pushport/pkg/transport"
	"github.com/urfave/cli/v2"
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "path to a YAML config file",
	EnvVars: []string{"PUSHPORT_CONFIG"},
}

var ridFlag = &cli.StringFlag{
	Name:    "rid",
	Aliases: []string{"r"},
	Usage:   "only emit records for this rid",
}

var messageTypeFlag = &cli.StringSliceFlag{
	Name:    "message-type",
	Aliases: []string{"m"},
	Usage:   "only process these message types (TS, SC, ...)",
}

func RegisterCLI() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "run",
			Usage: "consume the live Push Port feed",
			Flags: []cli.Flag{
				configFlag,
				ridFlag,
				messageTypeFlag,
				&cli.StringFlag{
					Name:  "listen",
					Usage: "listen target for the status server",
				},
			},
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}

				ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				sinks, err := BuildSinks(ctx, cfg)
				if err != nil {
					return err
				}
				defer sinks.Close(context.Background())

				stats := pushport.NewStats(prometheus.DefaultRegisterer)
				processor, err := newProcessor(cfg, sinks, stats)
				if err != nil {
					return err
				}

				consumer := &Consumer{
					Topics:       cfg.Stomp.Topics,
					Source:       transport.NewStompClient(cfg.Stomp),
					Processor:    processor,
					MessageTypes: cfg.Filter.MessageTypes,
				}

				server := &api.Server{
					Stats:  stats,
					Checks: sinks.Checks,
					Queues: sinks.Queues,
				}

				log.Info().Strs("topics", cfg.Stomp.Topics).Msg("Starting Darwin Push Port consumer")

				p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
				p.Go(consumer.Run)
				p.Go(func(ctx context.Context) error {
					return server.Listen(ctx, cfg.API.Listen)
				})

				return p.Wait()
			},
		},
		{
			Name:      "replay",
			Usage:     "process captured payload files",
			ArgsUsage: "<file or directory>...",
			Flags: []cli.Flag{
				configFlag,
				ridFlag,
				messageTypeFlag,
				&cli.StringFlag{
					Name:  "type",
					Usage: "message type of every file; inferred from content when empty",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() == 0 {
					return cli.Exit("replay needs at least one file", 1)
				}

				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}

				sinks, err := BuildSinks(c.Context, cfg)
				if err != nil {
					return err
				}
				defer sinks.Close(context.Background())

				stats := pushport.NewStats(prometheus.NewRegistry())
				processor, err := newProcessor(cfg, sinks, stats)
				if err != nil {
					return err
				}
				processor.InferKind = c.String("type") == ""

				consumer := &Consumer{
					Processor:    processor,
					MessageTypes: cfg.Filter.MessageTypes,
				}

				replay := &transport.Replay{MessageType: c.String("type")}
				if err := replay.Run(c.Context, c.Args().Slice(), consumer.Handle); err != nil {
					return err
				}

				snapshot := stats.Snapshot()
				log.Info().
					Interface("messages", snapshot.Messages).
					Interface("emitted", snapshot.Emitted).
					Interface("failures", snapshot.Failures).
					Interface("skipped", snapshot.Skipped).
					Msg("Replay complete")

				return nil
			},
		},
		{
			Name:      "decode",
			Usage:     "decode one captured payload and print the mapped record",
			ArgsUsage: "<file>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "type",
					Usage: "message type of the file; inferred from content when empty",
				},
				&cli.StringFlag{
					Name:  "timestamp",
					Usage: "timestamp to use when the envelope carries none",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.Exit("decode needs exactly one file", 1)
				}

				payload, err := os.ReadFile(c.Args().First())
				if err != nil {
					return err
				}

				processor := &pushport.Processor{InferKind: c.String("type") == ""}

				record, err := processor.DecodeAndRoute(payload, c.String("type"), c.String("timestamp"))
				if err != nil {
					return err
				}

				pretty.Println(record)

				return nil
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if rid := c.String("rid"); rid != "" {
		expression := fmt.Sprintf("RID == %s", strconv.Quote(rid))
		if cfg.Filter.Expression != "" {
			expression = fmt.Sprintf("(%s) && %s", cfg.Filter.Expression, expression)
		}
		cfg.Filter.Expression = expression
	}

	if types := c.StringSlice("message-type"); len(types) > 0 {
		cfg.Filter.MessageTypes = types
	}

	if listen := c.String("listen"); listen != "" {
		cfg.API.Listen = listen
	}

	return cfg, nil
}

func newProcessor(cfg *config.Config, sinks *Sinks, stats *pushport.Stats) (*pushport.Processor, error) {
	filter, err := emit.NewFilter(cfg.Filter.Stations, cfg.Filter.Expression)
	if err != nil {
		return nil, err
	}

	return &pushport.Processor{
		Emitter: &emit.Emitter{
			Filter:        filter,
			ScheduleSinks: sinks.Schedule,
			MovementSinks: sinks.Movement,
		},
		Stats: stats,
	}, nil
}
