package conversation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/cache/redis"
)

// DateContextProvider renders the relative-date anchor the classifier needs
// to resolve phrases like "yesterday". The rendered text is cached per
// session until local midnight, after which the anchor shifts.
type DateContextProvider struct {
	cache  *redis.Client
	now    func() time.Time
	logger *zap.Logger
}

func NewDateContextProvider(cache *redis.Client, logger *zap.Logger) *DateContextProvider {
	return &DateContextProvider{cache: cache, now: time.Now, logger: logger}
}

// DateContext returns the anchor text for a session, from cache when warm.
func (p *DateContextProvider) DateContext(ctx context.Context, sessionID string) string {
	if p.cache != nil {
		cached, err := p.cache.GetDateContext(ctx, sessionID)
		if err != nil {
			p.logger.Warn("date context cache read failed", zap.Error(err))
		} else if cached != "" {
			return cached
		}
	}

	rendered := renderDateContext(p.now())

	if p.cache != nil {
		if err := p.cache.SetDateContext(ctx, sessionID, rendered, untilMidnight(p.now())); err != nil {
			p.logger.Warn("date context cache write failed", zap.Error(err))
		}
	}

	return rendered
}

func renderDateContext(now time.Time) string {
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	// Weeks start on Monday for restaurant reporting.
	offset := (int(now.Weekday()) + 6) % 7
	weekStart := now.AddDate(0, 0, -offset).Format("2006-01-02")

	return fmt.Sprintf("today is %s (%s); yesterday was %s; this week started %s",
		today, now.Weekday(), yesterday, weekStart)
}

func untilMidnight(now time.Time) time.Duration {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return midnight.Sub(now)
}
