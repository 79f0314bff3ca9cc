// Package gateway runs chat turns against the configured model provider.
//
// A turn loads the conversation's history from the session store, prefixes
// the system prompt when the history lacks one, invokes the provider under
// the upstream timeout and, only on success, persists the user turn followed
// by the assistant turn.
//
// HandleTurn returns a *Completed or a *Stream depending on the request's
// Stream flag:
//
//	res, err := gw.HandleTurn(ctx, gateway.TurnRequest{Message: "hi", Stream: true})
//	if err != nil {
//	    return err
//	}
//	switch r := res.(type) {
//	case *gateway.Completed:
//	    fmt.Println(r.Text)
//	case *gateway.Stream:
//	    for f := range r.Fragments() {
//	        fmt.Print(f.Text)
//	    }
//	    if err := r.Err(); err != nil {
//	        return err
//	    }
//	}
//
// Errors match ErrRateLimitExceeded, ErrUpstreamFailure,
// ErrStreamInterrupted or ErrMalformedUpstreamPayload via errors.Is.
// Cancelling the caller's context yields context.Canceled and persists
// nothing.
//
// Service bundles the limiter, store, reaper and Gateway with a Start/Close
// lifecycle.
package gateway
