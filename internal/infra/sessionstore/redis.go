// Package sessionstore keeps booking sessions, commit tokens and pending charges.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// releaseScript удаляет ключ, только если он всё ещё принадлежит владельцу токена
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore хранит сессии в Redis; простой сессии ограничен TTL ключа
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	if rdb == nil {
		panic("sessionstore: redis client cannot be nil")
	}
	return &RedisStore{rdb: rdb}
}

// Save сохраняет сессию и продлевает её TTL
func (s *RedisStore) Save(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%w: Save - marshal session %s: %v", ErrStore, session.ID, err)
	}
	if err := s.rdb.Set(ctx, sessionKey(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: Save - session %s: %v", ErrStore, session.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - session %s: %v", ErrStore, id, err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: session %s: %v", ErrDecode, id, err)
	}
	return &session, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, sessionKey(id), commitKey(id)).Err(); err != nil {
		return fmt.Errorf("%w: Delete - session %s: %v", ErrStore, id, err)
	}
	return nil
}

// AcquireCommitLock выдаёт токен на фиксацию сессии; false, если фиксация уже идёт
func (s *RedisStore) AcquireCommitLock(ctx context.Context, sessionID, token string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, commitKey(sessionID), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: AcquireCommitLock - session %s: %v", ErrStore, sessionID, err)
	}
	return ok, nil
}

func (s *RedisStore) ReleaseCommitLock(ctx context.Context, sessionID, token string) error {
	if err := releaseScript.Run(ctx, s.rdb, []string{commitKey(sessionID)}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: ReleaseCommitLock - session %s: %v", ErrStore, sessionID, err)
	}
	return nil
}

// TrackCharge связывает платёж с сессией и ставит его в очередь по дедлайну
func (s *RedisStore) TrackCharge(ctx context.Context, reference, sessionID string, deadline time.Time, ttl time.Duration) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, chargeKey(reference), sessionID, ttl)
		pipe.ZAdd(ctx, chargeDeadlines, redis.Z{Score: float64(deadline.Unix()), Member: reference})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: TrackCharge - reference %s: %v", ErrStore, reference, err)
	}
	return nil
}

func (s *RedisStore) SessionByCharge(ctx context.Context, reference string) (string, error) {
	id, err := s.rdb.Get(ctx, chargeKey(reference)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrChargeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: SessionByCharge - reference %s: %v", ErrStore, reference, err)
	}
	return id, nil
}

// DueCharges возвращает платежи, дедлайн которых наступил к моменту now
func (s *RedisStore) DueCharges(ctx context.Context, now time.Time, limit int) ([]string, error) {
	refs, err := s.rdb.ZRangeByScore(ctx, chargeDeadlines, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: DueCharges: %v", ErrStore, err)
	}
	return refs, nil
}

func (s *RedisStore) UntrackCharge(ctx context.Context, reference string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, chargeKey(reference))
		pipe.ZRem(ctx, chargeDeadlines, reference)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: UntrackCharge - reference %s: %v", ErrStore, reference, err)
	}
	return nil
}

// MarkEventProcessed возвращает true, если событие платёжного шлюза встречено впервые
func (s *RedisStore) MarkEventProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	first, err := s.rdb.SetNX(ctx, eventKey(eventID), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: MarkEventProcessed - event %s: %v", ErrStore, eventID, err)
	}
	return first, nil
}

// ForgetEvent снимает отметку обработки, чтобы повтор события от шлюза был обработан заново
func (s *RedisStore) ForgetEvent(ctx context.Context, eventID string) error {
	if err := s.rdb.Del(ctx, eventKey(eventID)).Err(); err != nil {
		return fmt.Errorf("%w: ForgetEvent - event %s: %v", ErrStore, eventID, err)
	}
	return nil
}
