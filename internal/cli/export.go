package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/duoload/internal/config"
	"github.com/Sternrassler/duoload/pkg/client"
	"github.com/Sternrassler/duoload/pkg/deck"
	"github.com/Sternrassler/duoload/pkg/logging"
	"github.com/Sternrassler/duoload/pkg/metrics"
	"github.com/Sternrassler/duoload/pkg/output"
	"github.com/Sternrassler/duoload/pkg/output/anki"
	"github.com/Sternrassler/duoload/pkg/output/jsonout"
	"github.com/Sternrassler/duoload/pkg/output/mongoout"
	"github.com/Sternrassler/duoload/pkg/transfer"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func runExport(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, cfg)

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: cmd.ErrOrStderr(),
	})
	logger := logging.NewLogger("cli")

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		logger.Warn().Err(err).Msg("Falling back to info level")
	}

	// Everything that can be rejected locally is checked before any
	// connection is opened.
	limit := transfer.Unlimited
	if cmd.Flags().Changed("pages") {
		if limit, err = transfer.NewPageLimit(opts.pages); err != nil {
			return &transfer.TransferError{Stage: transfer.StageValidation, Err: err}
		}
	}
	if err := deck.Validate(opts.deckID); err != nil {
		return &transfer.TransferError{Stage: transfer.StageValidation, Err: err}
	}
	if opts.jsonFile == "-" {
		opts.jsonFile = ""
		opts.jsonStdout = true
	}

	clientCfg := client.DefaultConfig()
	clientCfg.BaseURL = cfg.APIURL
	clientCfg.UserAgent = cfg.UserAgent
	clientCfg.PageSize = cfg.PageSize
	clientCfg.CacheTTL = cfg.CacheTTL

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()
		clientCfg.Redis = rdb
	}

	source, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	if opts.refreshCache && !source.CacheEnabled() {
		logger.Warn().Msg("--refresh-cache has no effect without a Redis cache")
	} else if opts.refreshCache {
		removed, err := source.PurgeCache(ctx, opts.deckID)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to purge page cache")
		} else {
			logger.Info().Int("removed", removed).Msg("Page cache purged")
		}
	}

	sink, dest, closeSink, err := openSink(ctx, opts, cfg, cmd)
	if err != nil {
		return err
	}
	defer closeSink()

	processor := transfer.NewProcessor(source, sink, transfer.Config{
		PageDelay:     cfg.PageDelay,
		PageLimit:     limit,
		ProgressEvery: 100,
	})

	stats, runErr := processor.Run(ctx, opts.deckID, dest)

	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := metrics.Push(pushCtx, cfg.PushgatewayURL, metrics.DefaultJob); err != nil {
			logger.Warn().Err(err).Msg("Failed to push metrics")
		}
		cancel()
	}

	if runErr != nil {
		return runErr
	}

	printSummary(cmd.ErrOrStderr(), dest, stats)
	return nil
}

// applyFlags overrides environment settings with explicitly set flags.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("page-delay") {
		cfg.PageDelay = opts.pageDelay
	}
	if changed("api-url") {
		cfg.APIURL = opts.apiURL
	}
	if changed("redis-url") {
		cfg.RedisURL = opts.redisURL
	}
	if changed("mongo-uri") {
		cfg.MongoURI = opts.mongoURI
	}
	if changed("mongo-database") {
		cfg.MongoDatabase = opts.mongoDatabase
	}
	if changed("pushgateway-url") {
		cfg.PushgatewayURL = opts.pushgatewayURL
	}
	if changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if changed("log-pretty") {
		cfg.LogPretty = opts.logPretty
	}
}

// openSink picks the sink and destination for the selected output flag.
// The returned close function is always non-nil.
func openSink(ctx context.Context, opts *options, cfg *config.Config, cmd *cobra.Command) (transfer.Sink, output.Destination, func(), error) {
	noop := func() {}

	switch {
	case opts.ankiFile != "":
		return anki.New(opts.deckName), output.File(opts.ankiFile), noop, nil

	case opts.jsonFile != "":
		return jsonout.New(), output.File(opts.jsonFile), noop, nil

	case opts.jsonStdout:
		return jsonout.New(), output.Stream(cmd.OutOrStdout()), noop, nil

	case opts.mongoCollection != "":
		mc, err := mongoout.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, output.Destination{}, noop, &transfer.TransferError{Stage: transfer.StageSinkOpen, Err: err}
		}
		closeFn := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mc.Disconnect(dctx)
		}
		return mongoout.New(mc.Database(cfg.MongoDatabase)), output.Collection(opts.mongoCollection), closeFn, nil
	}

	return nil, output.Destination{}, noop, fmt.Errorf("no output selected")
}
