// Package session assembles the notification core for one signed-in role:
// a notifications.State, exactly one livechannel.Channel, a readsync.Syncer
// and a feed.Feed, all sharing the same store.
//
//	sess, err := session.New(client, notifications.RoleModel,
//		session.WithLogger(log),
//		session.WithConfig(cfg),
//	)
//	if err := sess.Start(ctx); err != nil {
//		return err
//	}
//	defer sess.Close()
//
//	target, ok := sess.Feed().Open(ctx, id)
//
// Start mounts the channel and loads history concurrently. Whichever finishes
// first, the store ends up with the union of both without duplicates.
// Close is the logout path; it leaves the store empty.
package session
