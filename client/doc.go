// Package client builds a retrying ChatProvider from configuration and
// decodes structured responses into Go types.
//
//	c, err := client.New(ctx, client.Config{
//	    Provider: ai.ProviderOpenAI,
//	    APIKey:   key,
//	    Model:    "gpt-4o-mini",
//	    Logger:   logger,
//	})
//	queries, err := client.Generate[SearchQuery](ctx, c, msgs)
package client
