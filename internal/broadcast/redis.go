package broadcast

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	publishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lexilens_broadcast_published_total",
		Help: "Messages published to the broadcast channel.",
	})
	receivedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lexilens_broadcast_received_total",
		Help: "Messages received from the broadcast channel.",
	})
)

func init() {
	prometheus.MustRegister(publishedTotal, receivedTotal)
}

// Redis is a Transport backed by Redis pub/sub. If redisURL is empty or the
// connection fails at startup, the transport is created disabled and every
// operation becomes a no-op.
type Redis struct {
	rdb     *redis.Client
	channel string
	log     zerolog.Logger
	cancel  context.CancelFunc
}

// NewRedis connects to Redis and returns a transport publishing on the
// given channel. Connection failure is not fatal; it disables broadcasting.
func NewRedis(redisURL, channel string, log zerolog.Logger) *Redis {
	if redisURL == "" {
		log.Info().Msg("broadcast: no redis URL configured, disabled")
		return &Redis{channel: channel, log: log}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("broadcast: invalid redis URL, disabled")
		return &Redis{channel: channel, log: log}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("broadcast: redis unreachable, disabled")
		return &Redis{channel: channel, log: log}
	}

	log.Info().Str("channel", channel).Msg("broadcast: redis connected")
	return &Redis{rdb: rdb, channel: channel, log: log}
}

// Enabled reports whether the transport has a live connection.
func (r *Redis) Enabled() bool {
	return r.rdb != nil
}

// Publish posts a payload to the channel. Best-effort: errors are returned
// for the caller to log, nothing is retried.
func (r *Redis) Publish(payload []byte) error {
	if r.rdb == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		return err
	}
	publishedTotal.Inc()
	return nil
}

// Subscribe starts the receive loop. The loop reconnects with a fixed
// backoff until Close is called.
func (r *Redis) Subscribe(handler func(payload []byte)) {
	if r.rdb == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	go func() {
		for {
			if err := r.receiveLoop(ctx, handler); err != nil {
				if ctx.Err() != nil {
					return
				}
				r.log.Warn().Err(err).Msg("broadcast: subscribe error, reconnecting in 5s")
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

// receiveLoop holds one subscription until it errors or the context ends.
func (r *Redis) receiveLoop(ctx context.Context, handler func(payload []byte)) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		receivedTotal.Inc()
		handler([]byte(msg.Payload))
	}
}

// Close stops the receive loop and shuts down the connection.
func (r *Redis) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
