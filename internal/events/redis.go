package events

import (
    "context"
    "encoding/json"
    "log"
    "sync"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// Redis implements Broker over Redis Pub/Sub so every API replica sees the
// events of solves running on the others.
type Redis struct {
    rdb    *redis.Client
    prefix string

    mu   sync.Mutex
    subs map[chan Event]*redis.PubSub
}

func NewRedis(url string) (*Redis, error) {
    opt, err := redis.ParseURL(url)
    if err != nil { return nil, err }
    return &Redis{rdb: redis.NewClient(opt), prefix: "linebalance:", subs: map[chan Event]*redis.PubSub{}}, nil
}

// Ping checks the connection.
func (b *Redis) Ping(ctx context.Context) error { return b.rdb.Ping(ctx).Err() }

func (b *Redis) Subscribe(topic string) chan Event {
    ch := make(chan Event, 16)
    ctx := context.Background()
    ps := b.rdb.Subscribe(ctx, b.prefix+topic)
    // wait for the subscription to be confirmed
    if _, err := ps.Receive(ctx); err != nil {
        log.Printf("events: subscribe %s: %v", topic, err)
    }
    b.mu.Lock()
    b.subs[ch] = ps
    b.mu.Unlock()
    go func() {
        for msg := range ps.Channel() {
            var evt Event
            if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil { continue }
            b.mu.Lock()
            if _, live := b.subs[ch]; live {
                select { case ch <- evt: default: }
            }
            b.mu.Unlock()
        }
    }()
    return ch
}

func (b *Redis) Unsubscribe(topic string, ch chan Event) {
    b.mu.Lock()
    ps, ok := b.subs[ch]
    delete(b.subs, ch)
    b.mu.Unlock()
    if !ok { return }
    _ = ps.Close()
    close(ch)
}

func (b *Redis) Publish(topic string, evt Event) {
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    data, err := json.Marshal(evt)
    if err != nil { return }
    if err := b.rdb.Publish(ctx, b.prefix+topic, data).Err(); err != nil {
        log.Printf("events: publish %s: %v", topic, err)
    }
}

func (b *Redis) Close() error { return b.rdb.Close() }
