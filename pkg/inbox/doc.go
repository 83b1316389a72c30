// Package inbox is a local stand-in for the notifications API.
//
// A Manager stores notifications per Recipient (user id plus role) in a
// Storage and pushes them to open streams through a BroadcastDeliverer.
// Handler exposes the HTTP contract the web client expects:
//
//	GET  /notifications?role=R          history as {"data":[...]}
//	GET  /notifications/stream?role=R   server-sent events
//	POST /notifications/mark-read       {"notificationId":..,"userType":..}
//	POST /notifications                 form intent=markAllRead&userType=R
//	POST /notifications/publish         inject a notification (no auth)
//
// Streams start with a connected frame and send a heartbeat frame at a
// fixed interval. MemoryStorage suits tests; RedisStorage survives restarts.
package inbox
