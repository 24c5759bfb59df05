// Package connection implements the player Connection Manager.
//
// The Connection Manager:
//   - Owns a single WebSocket connection for one player
//   - Targets {ws|wss}://{origin-host}/ws?playerId={id}
//   - Reconnects after drops with a fixed delay, up to a bounded attempt count
//   - Decodes inbound JSON frames and fans them out to "message" listeners
//   - Dispatches "open", "close" and "error" lifecycle events to listeners
//
// All listener calls for a Manager happen on a single dispatch goroutine, in
// the order events were produced by the transport.
package connection
