// Package clocksync keeps the players' clocks aligned with the server.
//
// Every interval the Coordinator sends a time-sync-request to each joined
// player and waits briefly for time-sync-reply answers. The server time and
// the answered client times are averaged, and every player that answered
// receives a time-sync-adjust carrying the offset it should apply. Players
// that stay silent are excluded from the average and get no adjustment.
package clocksync
