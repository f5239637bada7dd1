package summarizenews

import (
	"context"
	"time"

	"grokipedia-x/internal/common/aws"
	"grokipedia-x/internal/common/config"
	"grokipedia-x/internal/common/database"
	"grokipedia-x/internal/common/logger"
	buildrequest "grokipedia-x/internal/workers/news/build-request"
	extractresult "grokipedia-x/internal/workers/news/extract-result"
	fetchpayload "grokipedia-x/internal/workers/news/fetch-payload"
	persistsummary "grokipedia-x/internal/workers/news/persist-summary"
	streamcompletion "grokipedia-x/internal/workers/news/stream-completion"
)

const dependencyCheckTimeout = 3 * time.Second

// NewStages builds every stage from application config. Optional
// dependencies that cannot be reached are skipped with a warning. The
// returned cleanup releases connections held across runs.
func NewStages(ctx context.Context, cfg *config.Config, log logger.Logger, observers ...streamcompletion.Observer) (Stages, func(), error) {
	cleanup := func() {}

	var cache fetchpayload.PayloadCache
	if cfg.Cache.Redis.Address != "" && cfg.Cache.TTL > 0 {
		redis := database.NewRedis(cfg.Cache.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, dependencyCheckTimeout)
		err := redis.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("payload cache unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
			_ = redis.Close()
		} else {
			cache = redis
			cleanup = func() { _ = redis.Close() }
		}
	}

	var notifier persistsummary.Notifier
	if topic := cfg.Notifications.SNS.TopicARN; topic != "" {
		client, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region)
		if err != nil {
			log.Warn("summary notifications disabled", map[string]interface{}{"error": err.Error()})
		} else {
			notifier = persistsummary.NewSNSNotifier(client, topic)
		}
	}

	extract, err := extractresult.NewHandler(extractresult.NewConfig(cfg), log)
	if err != nil {
		cleanup()
		return Stages{}, func() {}, err
	}

	completionCfg := streamcompletion.NewConfig(cfg)
	stages := Stages{
		Fetch:    fetchpayload.NewHandler(fetchpayload.NewConfig(cfg), cache, log),
		Build:    buildrequest.NewHandler(buildrequest.NewConfig(cfg), log),
		Complete: streamcompletion.NewHandler(completionCfg, streamcompletion.NewXAIClient(completionCfg), log, observers...),
		Extract:  extract,
		Persist:  persistsummary.NewHandler(persistsummary.NewConfig(cfg), persistsummary.NewStoreOpener(cfg.Store), notifier, log),
	}
	return stages, cleanup, nil
}
