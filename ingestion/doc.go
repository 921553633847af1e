// Package ingestion builds index generations from a raw recipe dump.
//
// A build reads the Food.com RAW_recipes.csv layout, parses the stringified
// list columns, drops rows that cannot be useful results, embeds the
// name-and-ingredients text of every remaining recipe and publishes the
// records and vectors as one generation:
//
//	builder, err := ingestion.NewBuilder(provider, corpus.NewLayout("data"),
//	    ingestion.WithBatchSize(256),
//	    ingestion.WithProgress(os.Stderr),
//	)
//	report, err := builder.Build(ctx, "data/RAW_recipes.csv")
//
// Malformed cells never fail a build. A list that cannot be parsed is
// treated as empty and unparsable numbers become nil, so the row is either
// kept with missing fields or dropped by the cleaning filter.
//
// Embedding runs in batches on a worker pool. A failing batch is retried
// with exponential backoff before the build gives up, and every vector is
// normalized to unit length so that dot products are cosine similarities.
package ingestion
