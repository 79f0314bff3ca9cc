// Package logging builds the process logger on top of log/slog.
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	ctx = logging.WithRequestID(ctx, "01J...")
//	logger.InfoContext(ctx, "turn completed", "tokens", 42)
//
// Records logged with a context gain request_id, conversation_id, and client
// attributes when the context carries them. Attributes named like secrets
// (api_key, authorization, x-api-key) are masked, and provider keys or bearer
// tokens embedded in string values are scrubbed.
package logging
