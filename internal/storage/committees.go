package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	stderrors "ethics-review-service/internal/common/errors"
	"ethics-review-service/internal/common/logger"
	"ethics-review-service/internal/models"

	"github.com/redis/go-redis/v9"
)

// CommitteeStore resolves committee registry entries with a redis
// read-through cache in front of postgres. Redis trouble degrades to a
// direct database lookup, never to a failed resolution.
type CommitteeStore struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewCommitteeStore(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *CommitteeStore {
	return &CommitteeStore{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "committee-store"}),
	}
}

func committeeCacheKey(committeeID string) string {
	return "committee:" + committeeID
}

// GetCommittee resolves a committee id, consulting the cache first.
func (s *CommitteeStore) GetCommittee(ctx context.Context, committeeID string) (*models.Committee, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, committeeCacheKey(committeeID)).Result()
		if err == nil {
			var committee models.Committee
			if jsonErr := json.Unmarshal([]byte(cached), &committee); jsonErr == nil {
				return &committee, nil
			}
		} else if err != redis.Nil {
			s.logger.WithError(err).Warn("committee cache read failed", map[string]interface{}{
				"committeeId": committeeID,
			})
		}
	}

	var (
		committee     models.Committee
		committeeType string
		contactEmail  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, committee_type, contact_email
		FROM committees
		WHERE id = $1`, committeeID).Scan(
		&committee.ID,
		&committee.Name,
		&committeeType,
		&contactEmail,
	)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewUnknownCommitteeError(committeeID)
	}
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("select committee", err)
	}
	committee.Type = models.CommitteeType(committeeType)
	committee.ContactEmail = contactEmail.String

	if s.redis != nil {
		if payload, err := json.Marshal(&committee); err == nil {
			if err := s.redis.Set(ctx, committeeCacheKey(committeeID), payload, s.cacheTTL).Err(); err != nil {
				s.logger.WithError(err).Warn("committee cache write failed", map[string]interface{}{
					"committeeId": committeeID,
				})
			}
		}
	}

	return &committee, nil
}

// CommitteeEmail resolves the committee's delivery address for notifications.
func (s *CommitteeStore) CommitteeEmail(ctx context.Context, committeeID string) (string, error) {
	committee, err := s.GetCommittee(ctx, committeeID)
	if err != nil {
		return "", err
	}
	return committee.ContactEmail, nil
}
