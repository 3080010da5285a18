package presenter

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func channelName(session string) string {
	return "presenter:" + session
}

// RedisChannel carries presenter messages over Redis pub/sub so windows
// connected to different server instances see each other.
type RedisChannel struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisChannel(client *redis.Client, logger *zap.Logger) *RedisChannel {
	return &RedisChannel{client: client, logger: logger}
}

func (r *RedisChannel) Publish(ctx context.Context, session string, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channelName(session), raw).Err()
}

// Subscribe returns once Redis has confirmed the subscription, so anything
// published afterwards is delivered.
func (r *RedisChannel) Subscribe(ctx context.Context, session string) (Subscription, error) {
	ps := r.client.Subscribe(ctx, channelName(session))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	s := &redisSub{
		ps:   ps,
		out:  make(chan Message, subscriptionBuffer),
		done: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.forward(r.logger)
	return s, nil
}

type redisSub struct {
	ps   *redis.PubSub
	out  chan Message
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
	err  error
}

func (s *redisSub) C() <-chan Message { return s.out }

func (s *redisSub) forward(logger *zap.Logger) {
	defer s.wg.Done()
	defer close(s.out)
	in := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				logger.Warn("drop malformed presenter message", zap.String("channel", m.Channel), zap.Error(err))
				continue
			}
			select {
			case s.out <- msg:
			case <-s.done:
				return
			}
		}
	}
}

func (s *redisSub) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.ps.Close()
		s.wg.Wait()
	})
	return s.err
}
