package monitoring

import (
	"time"

	"habbo-tracker/internal/config"

	"github.com/getsentry/sentry-go"
)

// InitSentry is a no-op returning false when SENTRY_DSN is unset.
func InitSentry(cfg *config.Config) (bool, error) {
	if cfg.SentryDSN == "" {
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if event.Tags == nil {
				event.Tags = make(map[string]string)
			}
			event.Tags["app"] = "habbo-tracker"
			return event
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func CaptureError(err error, tags map[string]string) {
	hub := sentry.CurrentHub()
	if hub == nil || hub.Client() == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
