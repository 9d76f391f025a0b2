// Package ws pushes the latest timing report to WebSocket clients.
//
// Clients connect to /ws/stream and receive {"event":"report","data":{...}}
// on connect, on every broadcast tick, and whenever Publish is called after a
// recompute.
package ws
