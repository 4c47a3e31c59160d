// Package scholar holds the types shared by the research pipeline, the tool
// agent and the provider adapters: messages, chat options, tools,
// categorized errors and response schemas.
//
// Text generation goes through [ChatProvider]. The
// [github.com/spetersoncode/scholar/client] package builds one from
// configuration and adds retries and structured output:
//
//	c, err := client.New(ctx, client.Config{
//	    Provider: ai.ProviderOpenAI,
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	    BaseURL:  os.Getenv("ORCHESTATOR_BASE_URL"),
//	    Model:    os.Getenv("ORCHESTATOR_MODEL"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := c.Chat(ctx, []ai.Message{ai.NewUserMessage("Hello")})
//
// Structured responses are requested with a [ResponseSchema] derived from a
// Go type by [SchemaFor] and checked with [ValidateJSON]; a response that
// does not match is reported as a [*GenerationError].
//
// The research pipeline lives in [github.com/spetersoncode/scholar/research]
// and runs on the generic engine in
// [github.com/spetersoncode/scholar/workflow].
package scholar
