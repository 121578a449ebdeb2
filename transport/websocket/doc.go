// Package websocket streams game snapshots to spectators.
//
// The Hub satisfies game.Renderer: attach it to a game (alone or through
// ui.Multi) and every rendered frame is sent as a JSON "state_update"
// message to each client connected on /ws. Frames are dropped instead of
// slowing the game down when a client or the hub falls behind.
package websocket
