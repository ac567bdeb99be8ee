package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"verifyx/internal/sentinel"
	"verifyx/internal/verification/models"
	id "verifyx/pkg/domain"
)

const (
	sessionKeyPrefix    = "verification:session:"
	userSessionsPrefix  = "verification:user:"
	activePointerPrefix = "verification:active:"
	expiryIndexKey      = "verification:expiry"

	// maxExecuteRetries bounds optimistic-lock retries under WATCH contention.
	maxExecuteRetries = 5
)

// sessionJSON is the Redis representation of a Session. Top-level
// timestamps are Unix nanoseconds.
type sessionJSON struct {
	ID                string                `json:"id"`
	UserID            string                `json:"user_id"`
	DocumentID        string                `json:"document_id"`
	Status            string                `json:"status"`
	Result            string                `json:"result"`
	Steps             []models.Step         `json:"steps"`
	Scores            models.Scores         `json:"scores"`
	OverallConfidence *float64              `json:"overall_confidence,omitempty"`
	Errors            []models.SessionError `json:"errors,omitempty"`
	Credential        models.CredentialLink `json:"credential"`
	Metadata          models.Metadata       `json:"metadata"`
	CreatedAt         int64                 `json:"created_at"`
	StartedAt         int64                 `json:"started_at"`
	CompletedAt       *int64                `json:"completed_at,omitempty"`
	ExpiresAt         int64                 `json:"expires_at"`
}

func sessionToJSON(s *models.Session) *sessionJSON {
	j := &sessionJSON{
		ID:                s.ID.String(),
		UserID:            s.UserID.String(),
		DocumentID:        s.DocumentID.String(),
		Status:            string(s.Status),
		Result:            string(s.Result),
		Steps:             s.Steps,
		Scores:            s.Scores,
		OverallConfidence: s.OverallConfidence,
		Errors:            s.Errors,
		Credential:        s.Credential,
		Metadata:          s.Metadata,
		CreatedAt:         s.CreatedAt.UnixNano(),
		StartedAt:         s.StartedAt.UnixNano(),
		ExpiresAt:         s.ExpiresAt.UnixNano(),
	}
	if s.CompletedAt != nil {
		ts := s.CompletedAt.UnixNano()
		j.CompletedAt = &ts
	}
	return j
}

func sessionFromJSON(j *sessionJSON) (*models.Session, error) {
	sessionID, err := uuid.Parse(j.ID)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	userID, err := uuid.Parse(j.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	documentID, err := uuid.Parse(j.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("parse document id: %w", err)
	}
	s := &models.Session{
		ID:                id.VerificationID(sessionID),
		UserID:            id.UserID(userID),
		DocumentID:        id.DocumentID(documentID),
		Status:            models.Status(j.Status),
		Result:            models.Result(j.Result),
		Steps:             j.Steps,
		Scores:            j.Scores,
		OverallConfidence: j.OverallConfidence,
		Errors:            j.Errors,
		Credential:        j.Credential,
		Metadata:          j.Metadata,
		CreatedAt:         time.Unix(0, j.CreatedAt).UTC(),
		StartedAt:         time.Unix(0, j.StartedAt).UTC(),
		ExpiresAt:         time.Unix(0, j.ExpiresAt).UTC(),
	}
	if j.CompletedAt != nil {
		t := time.Unix(0, *j.CompletedAt).UTC()
		s.CompletedAt = &t
	}
	return s, nil
}

func decodeSession(data []byte) (*models.Session, error) {
	var j sessionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return sessionFromJSON(&j)
}

// RedisStore persists sessions in Redis for multi-instance deployments.
// A per-user SET NX pointer with the session TTL enforces the
// one-active-session rule; Execute uses WATCH/MULTI optimistic locking.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(sessionID id.VerificationID) string { return sessionKeyPrefix + sessionID.String() }
func userSessionsKey(userID id.UserID) string        { return userSessionsPrefix + userID.String() }
func activePointerKey(userID id.UserID) string       { return activePointerPrefix + userID.String() }

func (s *RedisStore) Create(ctx context.Context, session *models.Session, now time.Time) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	ttl := session.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return fmt.Errorf("session already expired: %w", sentinel.ErrInvalidInput)
	}
	if err := s.claimActivePointer(ctx, session, ttl, now); err != nil {
		return err
	}

	data, err := json.Marshal(sessionToJSON(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	member := session.ID.String()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, 0)
	pipe.ZAdd(ctx, userSessionsKey(session.UserID), redis.Z{Score: float64(session.CreatedAt.UnixNano()), Member: member})
	pipe.ZAdd(ctx, expiryIndexKey, redis.Z{Score: float64(session.ExpiresAt.UnixNano()), Member: member})
	if _, err := pipe.Exec(ctx); err != nil {
		// Release the pointer so the user is not locked out until TTL.
		_ = s.client.Del(context.WithoutCancel(ctx), activePointerKey(session.UserID)).Err()
		return fmt.Errorf("create session: %w", err)
	}

	s.expireStale(ctx, session.UserID, session.ID, now)
	return nil
}

// claimActivePointer points the user's active slot at session. A pointer to a
// session that is no longer active is replaced under WATCH.
func (s *RedisStore) claimActivePointer(ctx context.Context, session *models.Session, ttl time.Duration, now time.Time) error {
	key := activePointerKey(session.UserID)
	claimed, err := s.client.SetNX(ctx, key, session.ID.String(), ttl).Result()
	if err != nil {
		return fmt.Errorf("claim active session: %w", err)
	}
	if claimed {
		return nil
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		holder, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			holder = ""
		} else if err != nil {
			return err
		}
		if holder != "" {
			current, err := s.findByRawID(ctx, tx, holder)
			switch {
			case errors.Is(err, sentinel.ErrNotFound):
				// Claimed by a Create that has not written its session yet.
				return fmt.Errorf("concurrent session creation: %w", sentinel.ErrConflict)
			case err != nil:
				return err
			case current.IsActive(now):
				return fmt.Errorf("user has an active session: %w", sentinel.ErrConflict)
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, session.ID.String(), ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("concurrent session creation: %w", sentinel.ErrConflict)
	}
	return err
}

// expireStale marks the user's other lapsed sessions expired. Reads already
// treat them as expired, so failures are ignored.
func (s *RedisStore) expireStale(ctx context.Context, userID id.UserID, keep id.VerificationID, now time.Time) {
	sessions, err := s.ListByUser(ctx, userID)
	if err != nil {
		return
	}
	for _, existing := range sessions {
		if existing.ID == keep || existing.Status.IsTerminal() || !existing.IsExpired(now) {
			continue
		}
		_, _ = s.Execute(ctx, existing.ID,
			func(*models.Session) error { return nil },
			func(sess *models.Session) { sess.MarkExpired(now) },
		)
	}
}

func (s *RedisStore) findByRawID(ctx context.Context, c redis.Cmdable, raw string) (*models.Session, error) {
	data, err := c.Get(ctx, sessionKeyPrefix+raw).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("verification session not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return decodeSession(data)
}

func (s *RedisStore) FindByID(ctx context.Context, sessionID id.VerificationID) (*models.Session, error) {
	return s.findByRawID(ctx, s.client, sessionID.String())
}

// ListByUser returns the user's sessions, newest first.
func (s *RedisStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Session, error) {
	ids, err := s.client.ZRevRange(ctx, userSessionsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list session ids: %w", err)
	}
	if len(ids) == 0 {
		return []*models.Session{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, raw := range ids {
		cmds[i] = pipe.Get(ctx, sessionKeyPrefix+raw)
	}
	// Individual misses surface on each command below.
	_, _ = pipe.Exec(ctx)

	out := make([]*models.Session, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get session: %w", err)
		}
		session, err := decodeSession(data)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, nil
}

func (s *RedisStore) FindActiveByUser(ctx context.Context, userID id.UserID, now time.Time) (*models.Session, error) {
	holder, err := s.client.Get(ctx, activePointerKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("no active verification session: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get active pointer: %w", err)
	}
	session, err := s.findByRawID(ctx, s.client, holder)
	if err != nil {
		return nil, err
	}
	if !session.IsActive(now) {
		return nil, fmt.Errorf("no active verification session: %w", sentinel.ErrNotFound)
	}
	return session, nil
}

// Execute applies validate and mutate under WATCH on the session key and the
// owner's active pointer, retrying on optimistic-lock failure. Sessions that
// turn terminal release the pointer in the same transaction.
func (s *RedisStore) Execute(ctx context.Context, sessionID id.VerificationID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error) {
	key := sessionKey(sessionID)

	for attempt := 0; attempt < maxExecuteRetries; attempt++ {
		var result *models.Session
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("verification session not found: %w", sentinel.ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("get session: %w", err)
			}
			session, err := decodeSession(data)
			if err != nil {
				return err
			}
			if err := validate(session); err != nil {
				return err
			}
			mutate(session)

			pointerKey := activePointerKey(session.UserID)
			if err := tx.Watch(ctx, pointerKey).Err(); err != nil {
				return fmt.Errorf("watch active pointer: %w", err)
			}
			holder, err := tx.Get(ctx, pointerKey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return fmt.Errorf("get active pointer: %w", err)
			}

			encoded, err := json.Marshal(sessionToJSON(session))
			if err != nil {
				return fmt.Errorf("marshal session: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				if session.Status.IsTerminal() && holder == session.ID.String() {
					pipe.Del(ctx, pointerKey)
				}
				return nil
			})
			if err == nil {
				result = session
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("verification session contended: %w", sentinel.ErrConflict)
}

// DeleteExpired sweeps the expiry index. Sessions with a verdict are only
// dropped from the index so they stay available for issuance.
func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.client.ZRangeByScore(ctx, expiryIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixNano(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan expiry index: %w", err)
	}

	deleted := 0
	for _, raw := range ids {
		session, err := s.findByRawID(ctx, s.client, raw)
		if errors.Is(err, sentinel.ErrNotFound) {
			s.client.ZRem(ctx, expiryIndexKey, raw)
			continue
		}
		if err != nil {
			return deleted, err
		}

		pipe := s.client.TxPipeline()
		pipe.ZRem(ctx, expiryIndexKey, raw)
		if isSweepable(session, now) {
			pipe.Del(ctx, sessionKeyPrefix+raw)
			pipe.ZRem(ctx, userSessionsKey(session.UserID), raw)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return deleted, fmt.Errorf("sweep session %s: %w", raw, err)
		}
		if isSweepable(session, now) {
			deleted++
		}
	}
	return deleted, nil
}
