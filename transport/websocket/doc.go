// Package websocket provides the WebSocket transport for game traffic.
//
// Architecture:
//
// Each connection runs a read pump and a write pump. The read pump hands
// every text frame to a Dispatcher together with the connection's current
// room membership and stores the membership it gets back; when the
// connection ends it runs the dispatcher's disconnect handling exactly once.
// The write pump drains a bounded queue, writes one text frame per message,
// and pings the peer so dead connections are noticed.
//
// Sends never block: a full queue or a closed connection is reported to the
// caller as an error for that recipient only.
//
// The Hub only tracks open connections, for counting and for closing them
// all on shutdown. Rooms live in the session package.
//
// Connection Lifecycle:
//
// 1. Origin checked, connection upgraded and registered
// 2. Frames are rate limited and dispatched in arrival order
// 3. Read error, close frame, missed pong or shutdown ends the read pump
// 4. Disconnect handling runs, then the queue is closed and the hub forgets the connection
package websocket
