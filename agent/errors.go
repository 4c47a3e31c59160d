package agent

import "errors"

// ErrMaxStepsReached is returned by Conversation.Send when the agent used
// every step without producing a final answer.
var ErrMaxStepsReached = errors.New("agent: maximum steps reached")
