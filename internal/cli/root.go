// Package cli implements the duoload command line.
package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// options collects flag values.
type options struct {
	deckID   string
	deckName string

	ankiFile        string
	jsonFile        string
	jsonStdout      bool
	mongoCollection string

	pages        int
	pageDelay    time.Duration
	apiURL       string
	redisURL     string
	refreshCache bool

	mongoURI      string
	mongoDatabase string

	pushgatewayURL string
	logLevel       string
	logPretty      bool
}

// NewRootCmd builds the duoload command.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "duoload --deck-id ID (--anki-file FILE | --json-file FILE | --json | --mongo-collection NAME)",
		Short: "Export a Duocards deck to Anki, JSON or MongoDB",
		Long: `duoload downloads every card of a Duocards deck page by page and writes it
as an Anki package (.apkg), a JSON array (file or stdout) or into a MongoDB
collection. Cards whose word was already exported earlier in the run are
skipped and counted as duplicates.

Settings not given as flags are read from the environment or a .env file:
DUOLOAD_API_URL, DUOLOAD_USER_AGENT, DUOLOAD_PAGE_SIZE, DUOLOAD_PAGE_DELAY,
DUOLOAD_LOG_LEVEL, DUOLOAD_LOG_PRETTY, REDIS_URL, DUOLOAD_CACHE_TTL,
MONGO_URI, MONGO_DATABASE, PUSHGATEWAY_URL.`,
		Example: `  duoload --deck-id RGVjazo0NmYy... --anki-file vocab.apkg
  duoload --deck-id RGVjazo0NmYy... --json --pages 2 > sample.json
  duoload --deck-id RGVjazo0NmYy... --mongo-collection cards --mongo-uri mongodb://localhost:27017`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&opts.deckID, "deck-id", "", "Duocards deck identifier (base64 of \"Deck:<uuid>\")")
	f.StringVar(&opts.deckName, "deck-name", "Duocards Vocabulary", "Deck name inside the Anki package")

	f.StringVar(&opts.ankiFile, "anki-file", "", "Write an Anki package (.apkg) to this path")
	f.StringVar(&opts.jsonFile, "json-file", "", "Write a JSON array to this path (\"-\" for stdout)")
	f.BoolVar(&opts.jsonStdout, "json", false, "Write a JSON array to stdout")
	f.StringVar(&opts.mongoCollection, "mongo-collection", "", "Upsert cards into this MongoDB collection")

	f.IntVar(&opts.pages, "pages", 0, "Fetch at most this many pages (positive integer)")
	f.DurationVar(&opts.pageDelay, "page-delay", time.Second, "Pause between page requests")
	f.StringVar(&opts.apiURL, "api-url", "", "Duocards GraphQL endpoint (env DUOLOAD_API_URL)")
	f.StringVar(&opts.redisURL, "redis-url", "", "Cache fetched pages in Redis (env REDIS_URL)")
	f.BoolVar(&opts.refreshCache, "refresh-cache", false, "Drop cached pages of the deck before fetching")

	f.StringVar(&opts.mongoURI, "mongo-uri", "", "MongoDB connection string (env MONGO_URI)")
	f.StringVar(&opts.mongoDatabase, "mongo-database", "", "MongoDB database (env MONGO_DATABASE)")

	f.StringVar(&opts.pushgatewayURL, "pushgateway-url", "", "Push run metrics to this Prometheus Pushgateway (env PUSHGATEWAY_URL)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error, disabled (env DUOLOAD_LOG_LEVEL)")
	f.BoolVar(&opts.logPretty, "log-pretty", false, "Human readable logs instead of JSON (env DUOLOAD_LOG_PRETTY)")

	_ = rootCmd.MarkFlagRequired("deck-id")
	rootCmd.MarkFlagsMutuallyExclusive("anki-file", "json-file", "json", "mongo-collection")
	rootCmd.MarkFlagsOneRequired("anki-file", "json-file", "json", "mongo-collection")

	return rootCmd
}
