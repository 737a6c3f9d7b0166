package redis_session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/limelight-ai/limelight/session"
)

type Store struct {
	client *redis.Client
}

func NewRedisSessionStore(addr, password string, db int) session.Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: rdb}
}

func queriesKey(id string) string { return fmt.Sprintf("session:%s:queries", id) }

func (store *Store) EnsureSession(id string, ttl time.Duration) (session.Session, error) {
	ctx := context.Background()
	if id == "" {
		id = uuid.NewString()
	}
	key := queriesKey(id)
	exists, err := store.client.Exists(ctx, key).Result()
	if err == nil && exists == 1 {
		_ = store.client.Expire(ctx, key, ttl).Err()
	}
	return &Session{client: store.client, id: id, ttl: ttl}, nil
}

func (store *Store) GetSession(id string) (session.Session, error) {
	ctx := context.Background()
	exists, err := store.client.Exists(ctx, queriesKey(id)).Result()
	if err != nil || exists == 0 {
		return nil, nil
	}
	return &Session{client: store.client, id: id}, nil
}

type Session struct {
	client *redis.Client
	id     string
	ttl    time.Duration
}

func (s *Session) ID() string { return s.id }

func (s *Session) Expire(ttl time.Duration) {
	s.ttl = ttl
	_ = s.client.Expire(context.Background(), queriesKey(s.id), ttl).Err()
}

func (s *Session) AddQuery(query string) error {
	ctx := context.Background()
	key := queriesKey(s.id)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, query)
	pipe.LTrim(ctx, key, -int64(session.HistoryLimit), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Session) RecentQueries() []string {
	out, err := s.client.LRange(context.Background(), queriesKey(s.id), 0, -1).Result()
	if err != nil {
		return nil
	}
	return out
}
