// Package agui streams workflow and agent events to AG-UI frontends.
//
// A [Mapper] turns [github.com/spetersoncode/scholar/event.Event] values into AG-UI protocol events and an
// [SSEWriter] writes them as server-sent events:
//
//	sse, err := agui.NewSSEWriter(w)
//	if err != nil {
//	    return err
//	}
//	mapper := agui.NewMapper(threadID, runID)
//	err = agui.Stream(ctx, sse, mapper, events, runErr)
//
// Nested runs (interviews inside the research pipeline) are reported as
// steps named after their scope, so a client sees exactly one
// RUN_STARTED / RUN_FINISHED pair per request. A run suspended for human
// feedback ends with a CUSTOM "awaiting_feedback" event.
//
// The Mapper is not safe for concurrent use; create one per run.
package agui
