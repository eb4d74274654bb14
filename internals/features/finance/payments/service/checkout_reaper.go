// file: internals/features/finance/payments/service/checkout_reaper.go
package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger routes robfig/cron's own logging into zap.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw(msg, append(kv, "error", err)...)
}

// StartCheckoutReaper expires pending checkouts on the given schedule
// ("@every 5m", "*/10 * * * *"). Stop the returned cron on shutdown.
func StartCheckoutReaper(schedule string, g *GatewayService, log *zap.Logger) (*cron.Cron, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{log.Sugar()}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := g.ExpirePending(ctx)
		if err != nil {
			log.Error("checkout reaper failed", zap.Error(err))
			return
		}
		if n > 0 {
			log.Info("checkouts expired", zap.Int64("count", n))
		}
	})
	if err != nil {
		return nil, err
	}
	log.Info("checkout reaper started", zap.String("schedule", schedule))
	c.Start()
	return c, nil
}
