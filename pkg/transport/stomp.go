// Package transport delivers Push Port frames from the live STOMP feed or
// from captured files.
package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-stomp/stomp/v3"
	stompframe "github.com/go-stomp/stomp/v3/frame"
	"github.com/rs/zerolog/log"
	"github.com/travigo/pushport/pkg/config"
	"github.com/travigo/pushport/pkg/pushport/frame"
)

// Handler receives each frame in delivery order. A returned error is logged
// and the subscription carries on.
type Handler func(ctx context.Context, f frame.Frame) error

var ErrSubscriptionClosed = errors.New("subscription closed")

type StompClient struct {
	Address   string
	Username  string
	Password  string
	ClientID  string
	HeartBeat time.Duration

	ReconnectInitial  time.Duration
	ReconnectMax      time.Duration
	ReconnectAttempts uint64
}

func NewStompClient(stompConfig config.StompConfig) *StompClient {
	clientID := stompConfig.ClientID
	if clientID == "" {
		hostname, _ := os.Hostname()
		clientID = hostname
	}

	return &StompClient{
		Address:           stompConfig.Address,
		Username:          stompConfig.Username,
		Password:          stompConfig.Password,
		ClientID:          clientID,
		HeartBeat:         stompConfig.HeartBeat,
		ReconnectInitial:  stompConfig.ReconnectInitial,
		ReconnectMax:      stompConfig.ReconnectMax,
		ReconnectAttempts: stompConfig.ReconnectAttempts,
	}
}

func (s *StompClient) reconnectPolicy(ctx context.Context) backoff.BackOff {
	exponential := backoff.NewExponentialBackOff()
	if s.ReconnectInitial > 0 {
		exponential.InitialInterval = s.ReconnectInitial
	}
	if s.ReconnectMax > 0 {
		exponential.MaxInterval = s.ReconnectMax
	}
	exponential.Multiplier = 2
	exponential.RandomizationFactor = 0.6
	exponential.MaxElapsedTime = 0

	var policy backoff.BackOff = exponential
	if s.ReconnectAttempts > 0 {
		policy = backoff.WithMaxRetries(policy, s.ReconnectAttempts)
	}

	return backoff.WithContext(policy, ctx)
}

// Run subscribes to queueName and hands every message to handle until ctx
// is done. Lost connections are re-established with exponential backoff;
// the attempt budget resets after each successful subscription.
func (s *StompClient) Run(ctx context.Context, queueName string, handle Handler) error {
	policy := s.reconnectPolicy(ctx)

	err := backoff.RetryNotify(func() error {
		err := s.consume(ctx, queueName, handle, policy.Reset)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		return err
	}, policy, func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("queue", queueName).Dur("retry", wait).Msg("STOMP connection lost")
	})

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}

	return err
}

func (s *StompClient) consume(ctx context.Context, queueName string, handle Handler, connected func()) error {
	stompOptions := []func(*stomp.Conn) error{
		stomp.ConnOpt.Login(s.Username, s.Password),
		stomp.ConnOpt.HeartBeat(s.HeartBeat, s.HeartBeat),
		stomp.ConnOpt.HeartBeatGracePeriodMultiplier(2.5),
	}
	if s.ClientID != "" {
		stompOptions = append(stompOptions, stomp.ConnOpt.Header("client-id", fmt.Sprintf("%s-%s", s.Username, s.ClientID)))
	}

	conn, err := stomp.Dial("tcp", s.Address, stompOptions...)
	if err != nil {
		return fmt.Errorf("cannot connect to server: %w", err)
	}
	defer conn.MustDisconnect()

	var subscribeOptions []func(*stompframe.Frame) error
	if s.ClientID != "" {
		subscribeOptions = append(subscribeOptions, stomp.SubscribeOpt.Header("activemq.subscriptionName", s.ClientID))
	}

	sub, err := conn.Subscribe(queueName, stomp.AckAuto, subscribeOptions...)
	if err != nil {
		return fmt.Errorf("cannot subscribe to %s: %w", queueName, err)
	}

	log.Info().Str("address", s.Address).Str("queue", queueName).Msg("Subscribed to STOMP queue")
	connected()

	for {
		select {
		case <-ctx.Done():
			_ = sub.Unsubscribe()
			return ctx.Err()
		case msg, ok := <-sub.C:
			if !ok {
				return ErrSubscriptionClosed
			}
			if msg.Err != nil {
				return msg.Err
			}

			f := frame.Frame{
				Payload:     msg.Body,
				MessageType: msg.Header.Get("MessageType"),
				Timestamp:   headerTimestamp(msg.Header.Get("timestamp")),
				Source:      queueName,
			}

			if err := handle(ctx, f); err != nil {
				log.Error().Err(err).Str("queue", queueName).Str("type", f.MessageType).Msg("Failed to handle message")
			}
		}
	}
}

// headerTimestamp converts the broker's epoch-millisecond timestamp header.
func headerTimestamp(value string) string {
	if value == "" {
		return ""
	}

	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return value
	}

	return time.UnixMilli(millis).UTC().Format(time.RFC3339)
}
