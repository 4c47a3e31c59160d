// Package agent runs a tool-calling model in a ReAct loop.
//
// Each step sends the conversation, prefixed with the system prompt, to the
// model together with the registry's tools. Requested tools are executed
// (one at a time unless WithParallelToolCalls is set) and their results
// appended; the loop ends when the model answers without tool calls or
// MaxSteps (default 10) is reached.
//
//	registry := tool.NewRegistry().Add(tool.Arithmetic()...)
//	a := agent.New(provider, registry)
//	result, err := a.Run(ctx, []ai.Message{ai.NewUserMessage("Add 3 and 4.")})
//
// Conversation keeps per-thread history in a checkpoint saver so a thread
// can be continued across calls and processes:
//
//	conv := agent.NewConversation(a, checkpoint.NewSaver(adapter))
//	result, err := conv.Send(ctx, "1", "Multiply that by 2.")
package agent
