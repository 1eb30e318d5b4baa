// Package server is the HTTP layer: the SSE and WebSocket streaming
// endpoints, the public REST API for polling clients, health and metrics
// endpoints, and the connection limits that protect the streaming fan-out.
package server
