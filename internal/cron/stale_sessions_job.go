package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/tableside-backend/pkg/logger"
)

const staleSessionsJobName = "close-stale-sessions"

type staleSessionCloser interface {
	CloseStaleSessions(ctx context.Context, cutoff time.Time) (int, error)
}

// StaleSessionsJobParams configure the stale session sweep.
type StaleSessionsJobParams struct {
	Logger   *logger.Logger
	Sessions staleSessionCloser
	MaxAge   time.Duration
	Now      func() time.Time
}

type staleSessionsJob struct {
	logg     *logger.Logger
	sessions staleSessionCloser
	maxAge   time.Duration
	now      func() time.Time
}

// NewStaleSessionsJob closes active or ordered sessions older than MaxAge,
// the tables diners walked away from without paying in the app.
func NewStaleSessionsJob(params StaleSessionsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session service required")
	}
	if params.MaxAge <= 0 {
		return nil, fmt.Errorf("session max age must be positive")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &staleSessionsJob{
		logg:     params.Logger,
		sessions: params.Sessions,
		maxAge:   params.MaxAge,
		now:      now,
	}, nil
}

func (j *staleSessionsJob) Name() string { return staleSessionsJobName }

func (j *staleSessionsJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.maxAge)
	closed, err := j.sessions.CloseStaleSessions(ctx, cutoff)
	ctx = j.logg.WithFields(ctx, map[string]any{"cutoff": cutoff.Format(time.RFC3339), "closed": closed})
	if closed > 0 {
		j.logg.Info(ctx, "closed stale table sessions")
	}
	return err
}
