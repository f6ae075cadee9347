package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/duoload/pkg/deck"
	"github.com/Sternrassler/duoload/pkg/output"
	"github.com/Sternrassler/duoload/pkg/vocab"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Page is one page of a deck as returned by a RecordSource.
type Page struct {
	// Cards are in deck order.
	Cards []vocab.Card
	// EndCursor continues the connection after this page.
	EndCursor   string
	HasNextPage bool
}

// RecordSource fetches deck pages. An empty cursor requests the first page.
type RecordSource interface {
	FetchPage(ctx context.Context, deckID, cursor string) (*Page, error)
}

// Sink accumulates exported cards and writes them out once the run is done.
type Sink interface {
	// Add takes ownership of card. It returns false if the sink declined
	// the card, for example because it already holds the same word.
	Add(card vocab.Card) (bool, error)

	// Finalize writes every accepted card to dest.
	Finalize(ctx context.Context, dest output.Destination) error
}

// Config holds processor configuration.
type Config struct {
	// PageDelay is the pause before every fetch after the first.
	// Zero disables the pause.
	PageDelay time.Duration

	// PageLimit caps the number of fetched pages.
	PageLimit PageLimit

	// Dedup overrides the per-run duplicate tracker. When nil every run
	// starts with a fresh DuplicateHandler.
	Dedup Deduplicator

	// ProgressEvery logs progress after this many processed cards.
	ProgressEvery int

	// Logger defaults to the global logger with component=transfer.
	Logger *zerolog.Logger
}

// DefaultConfig returns the configuration used against the live API.
func DefaultConfig() Config {
	return Config{
		PageDelay:     1 * time.Second,
		PageLimit:     Unlimited,
		ProgressEvery: 100,
	}
}

// Processor runs transfers from one source into one sink.
type Processor struct {
	source RecordSource
	sink   Sink
	config Config
	logger zerolog.Logger
}

// NewProcessor creates a processor. A negative PageDelay is treated as zero.
func NewProcessor(source RecordSource, sink Sink, config Config) *Processor {
	if config.PageDelay < 0 {
		config.PageDelay = 0
	}
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = 100
	}

	logger := log.With().Str("component", "transfer").Logger()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Processor{
		source: source,
		sink:   sink,
		config: config,
		logger: logger,
	}
}

// Run exports deckID into dest. The returned stats are valid even when err is
// non-nil, but a failed run must not be treated as a complete export.
func (p *Processor) Run(ctx context.Context, deckID string, dest output.Destination) (Stats, error) {
	start := time.Now()
	var stats Stats

	fail := func(stage Stage, page int, err error) (Stats, error) {
		stats.Elapsed = time.Since(start)
		transferErrorsTotal.WithLabelValues(string(stage)).Inc()
		p.logger.Error().
			Err(err).
			Str("stage", string(stage)).
			Int("page", page).
			Int("total_cards", stats.TotalCards).
			Int("duplicates", stats.Duplicates).
			Msg("Transfer failed")
		return stats, &TransferError{Stage: stage, Page: page, Err: err}
	}

	if err := deck.Validate(deckID); err != nil {
		return fail(StageValidation, 0, err)
	}

	dedup := p.config.Dedup
	if dedup == nil {
		dedup = NewDuplicateHandler()
	}

	p.logger.Info().
		Str("destination", dest.String()).
		Str("page_limit", p.config.PageLimit.String()).
		Dur("page_delay", p.config.PageDelay).
		Msg("Starting transfer")

	cursor := ""
	for page := 1; ; page++ {
		if !p.config.PageLimit.ShouldContinue(page) {
			p.logger.Info().
				Int("pages", stats.Pages).
				Msg("Page limit reached")
			break
		}

		if page > 1 {
			if err := sleep(ctx, p.config.PageDelay); err != nil {
				return fail(StageFetch, page, err)
			}
		}

		fetchStart := time.Now()
		result, err := p.source.FetchPage(ctx, deckID, cursor)
		pageFetchDuration.Observe(time.Since(fetchStart).Seconds())
		if err != nil {
			return fail(StageFetch, page, err)
		}
		if result == nil {
			return fail(StageFetch, page, errors.New("record source returned no page"))
		}
		stats.Pages++
		pagesFetchedTotal.Inc()

		p.logger.Debug().
			Int("page", page).
			Int("cards", len(result.Cards)).
			Bool("has_next_page", result.HasNextPage).
			Msg("Page fetched")

		for _, card := range result.Cards {
			if dedup.Remember(card.Word) {
				stats.Duplicates++
				cardsTotal.WithLabelValues("duplicate").Inc()
			} else {
				added, err := p.sink.Add(card)
				if err != nil {
					return fail(StageSinkAdd, page, fmt.Errorf("add %q: %w", card.Word, err))
				}
				if added {
					stats.TotalCards++
					cardsTotal.WithLabelValues("added").Inc()
				} else {
					stats.Rejected++
					cardsTotal.WithLabelValues("rejected").Inc()
				}
			}

			if processed := stats.Processed(); processed%p.config.ProgressEvery == 0 {
				p.logger.Info().
					Int("processed", processed).
					Int("total_cards", stats.TotalCards).
					Int("duplicates", stats.Duplicates).
					Dur("elapsed", time.Since(start)).
					Msg("Transfer progress")
			}
		}

		if !result.HasNextPage {
			p.logger.Debug().Int("page", page).Msg("No more pages")
			break
		}
		if result.EndCursor == "" {
			return fail(StageFetch, page, ErrMissingCursor)
		}
		cursor = result.EndCursor
	}

	if err := p.sink.Finalize(ctx, dest); err != nil {
		return fail(StageSinkFinalize, 0, err)
	}

	stats.Elapsed = time.Since(start)
	transferDuration.Observe(stats.Elapsed.Seconds())

	p.logger.Info().
		Int("pages", stats.Pages).
		Int("total_cards", stats.TotalCards).
		Int("duplicates", stats.Duplicates).
		Int("rejected", stats.Rejected).
		Dur("duration", stats.Elapsed).
		Msg("Transfer complete")

	return stats, nil
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
