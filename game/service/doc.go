// Package service routes client messages to rooms and answers read queries
// about them.
//
// Coordinator is the message router and disconnect handler. Transports hand
// it raw frames together with the connection's Membership and keep the
// Membership it returns; the transport never learns about rooms itself.
//
// RoomService is the read-only view used by the REST API and MCP tools.
package service
