// Package redissink mirrors the event stream into redis so other processes
// can follow a running session.
package redissink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	DefaultStream  = "fca:events"
	DefaultChannel = "fca:events"
	DefaultMaxLen  = 10000
)

type Options struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Channel  string
	MaxLen   int64
}

// Sink appends every message to a capped redis stream and publishes it on a
// pub/sub channel.
type Sink struct {
	client  *redis.Client
	stream  string
	channel string
	maxLen  int64
}

func Connect(ctx context.Context, opts Options, log logrus.FieldLogger) (*Sink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	retry := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	err := backoff.Retry(func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warnf("redis connection failed: %v, retrying...", err)
			return err
		}
		return nil
	}, retry)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}

	return New(client, opts), nil
}

func New(client *redis.Client, opts Options) *Sink {
	s := &Sink{client: client, stream: opts.Stream, channel: opts.Channel, maxLen: opts.MaxLen}
	if s.stream == "" {
		s.stream = DefaultStream
	}
	if s.channel == "" {
		s.channel = DefaultChannel
	}
	if s.maxLen <= 0 {
		s.maxLen = DefaultMaxLen
	}
	return s
}

type envelope struct {
	Kind    domain.MessageKind `json:"kind"`
	Account domain.AccountID   `json:"account,omitempty"`
	Payload domain.Message     `json:"payload"`
}

func (s *Sink) Handle(ctx context.Context, msg domain.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.MessageKind(), err)
	}
	account := accountOf(msg)

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"kind":    string(msg.MessageKind()),
			"account": string(account),
			"payload": string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("append to stream %s: %w", s.stream, err)
	}

	body, err := json.Marshal(envelope{Kind: msg.MessageKind(), Account: account, Payload: msg})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, body).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", s.channel, err)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.client.Close()
}

func accountOf(msg domain.Message) domain.AccountID {
	switch m := msg.(type) {
	case domain.ActivityEvent:
		return m.AccountID
	case domain.JackpotState:
		return m.AccountID
	case domain.JackpotWin:
		return m.AccountID
	case domain.SpinOutcome:
		return m.AccountID
	case domain.SessionLost:
		return m.AccountID
	case domain.UserInfo:
		return m.AccountID
	case domain.EngineTransition:
		return m.AccountID
	}
	return ""
}
