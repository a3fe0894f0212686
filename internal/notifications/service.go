package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/stockdeck/pkg/config"
	"github.com/angelmondragon/stockdeck/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
)

// Level classifies a notification for display.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one transient toast message for a user.
type Notification struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Service keeps per-user notification lists in redis. Notifications are
// transient by nature: the list is capped and expires, and draining deletes
// it. Nothing here survives redis loss, which is acceptable for toasts.
type Service struct {
	rdb  *goredis.Client
	cfg  config.NotificationsConfig
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the notification store.
func NewService(rdb *goredis.Client, cfg config.NotificationsConfig, logg *logger.Logger) (*Service, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.MaxKept <= 0 {
		cfg.MaxKept = 50
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &Service{rdb: rdb, cfg: cfg, logg: logg, now: time.Now}, nil
}

// Push records a notification for the user. Failures are logged and
// swallowed: a lost toast must never fail the mutation that produced it.
func (s *Service) Push(ctx context.Context, userID string, level Level, message string) {
	note := Notification{
		Level:     level,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	data, err := json.Marshal(note)
	if err != nil {
		s.logg.Error(ctx, "failed to encode notification", err)
		return
	}

	key := notificationsKey(userID)
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(s.cfg.MaxKept-1))
	pipe.Expire(ctx, key, s.cfg.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		ctx = s.logg.WithUserID(ctx, userID)
		s.logg.Error(ctx, "failed to store notification", err)
	}
}

// Success records a success-level notification.
func (s *Service) Success(ctx context.Context, userID, message string) {
	s.Push(ctx, userID, LevelSuccess, message)
}

// Error records an error-level notification.
func (s *Service) Error(ctx context.Context, userID, message string) {
	s.Push(ctx, userID, LevelError, message)
}

// Drain returns the user's pending notifications newest-first and clears the
// list, so each notification is delivered once.
func (s *Service) Drain(ctx context.Context, userID string) ([]Notification, error) {
	key := notificationsKey(userID)

	pipe := s.rdb.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("draining notifications: %w", err)
	}

	raw := rangeCmd.Val()
	notes := make([]Notification, 0, len(raw))
	for _, entry := range raw {
		var note Notification
		if err := json.Unmarshal([]byte(entry), &note); err != nil {
			s.logg.Warn(ctx, "skipping undecodable notification")
			continue
		}
		notes = append(notes, note)
	}
	return notes, nil
}

func notificationsKey(userID string) string {
	return "notifications:" + userID
}
