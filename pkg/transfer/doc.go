// Package transfer drives a paginated export from a record source into an
// output sink.
//
// Duocards serves a deck through a cursor-paginated GraphQL connection. The
// Processor walks that connection strictly sequentially, one page in flight at
// a time, with a fixed pause between pages to keep the request rate low.
//
// Example usage:
//
//	source, _ := client.New(client.DefaultConfig())
//	sink := jsonout.NewBuilder()
//	p := transfer.NewProcessor(source, sink, transfer.DefaultConfig())
//	stats, err := p.Run(ctx, deckID, output.Stream(os.Stdout))
//
// The processor:
//   - Validates the deck identifier before any fetch
//   - Fetches pages in order, following the continuation cursor
//   - Drops cards whose word was already seen during the run
//   - Hands every other card to the sink, in source order
//   - Stops when the source reports no further pages or the page limit is hit
//   - Finalizes the sink into the destination
//
// Every error is terminal and carries the stage that failed (see Stage).
package transfer
