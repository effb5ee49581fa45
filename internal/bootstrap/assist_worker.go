package bootstrap

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"assist_server/adapter/in/worker"
	"assist_server/adapter/out/messaging"
	"assist_server/config"
	"assist_server/pkg/logger"

	"github.com/rs/zerolog"
)

// Worker runs the dispatch consumer that drains the assist streams.
type Worker struct {
	consumer *messaging.Consumer
	deps     *Dependencies
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	zlog     zerolog.Logger
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}

	if deps.Redis == nil {
		cleanup()
		return nil, nil, fmt.Errorf("worker mode requires Redis, set REDIS_URL")
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "worker").Logger()

	dispatcher := worker.NewDispatcher(zlog, deps.Metrics)

	consumer := messaging.NewConsumer(deps.Redis, &messaging.ConsumerConfig{
		Group:    "assist-workers",
		Consumer: cfg.WorkerID,
		Streams:  []string{messaging.StreamDispatch, messaging.StreamHandoff},
		Handler:  dispatcher,
		Logger:   zlog,

		BatchSize:  int64(cfg.ConsumerBatchSize),
		BlockTime:  time.Duration(cfg.ConsumerBlockMS) * time.Millisecond,
		MaxRetries: cfg.ConsumerMaxRetries,
	})

	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		consumer: consumer,
		deps:     deps,
		ctx:      ctx,
		cancel:   cancel,
		zlog:     zlog,
	}

	logger.Info("Dispatch worker configured (consumer: %s)", cfg.WorkerID)
	return w, cleanup, nil
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.zlog.Info().Msg("starting stream consumer")
		if err := w.consumer.Run(w.ctx); err != nil && err != context.Canceled {
			w.zlog.Error().Err(err).Msg("stream consumer error")
		}
	}()

	<-w.ctx.Done()
}

func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) Dependencies() *Dependencies {
	return w.deps
}
