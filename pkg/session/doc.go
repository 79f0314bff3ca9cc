// Package session keeps short-lived conversation history in memory.
//
// # Store
//
// A Store maps conversation ids to an ordered list of turns. Every operation
// on one conversation is linearized by that conversation's own lock, so two
// requests for different conversations never wait on each other:
//
//	store := session.NewStore(20)
//	store.Append(id, session.Turn{Role: session.RoleUser, Text: "hi"})
//	history := store.History(id) // a copy; safe to modify
//
// When a conversation grows past its turn limit the oldest turns are dropped.
// A system turn in the first position is kept so the conversation stays primed.
//
// # Reaper
//
// Conversations are never closed explicitly by clients, so a Reaper evicts the
// ones that have been idle for longer than the configured TTL:
//
//	reaper := session.NewReaper(store, session.ReaperConfig{
//	    TTL:      time.Hour,
//	    Interval: 5 * time.Minute,
//	})
//	if err := reaper.Start(ctx); err != nil {
//	    return err
//	}
//	defer reaper.Stop()
//
// Nothing in this package survives a restart.
package session
