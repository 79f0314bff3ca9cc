// Package cli provides the helpers shared by the chatgate commands: exit
// codes for typed command errors and a signal-aware context for graceful
// shutdown.
//
//	ctx, stop := cli.SignalContext(context.Background())
//	defer stop()
//	return srv.Start(ctx)
package cli
