// Package common provides core data structures and utilities shared by the RPC
// server, the RPC client and the command line tools.
//
// The package focuses on:
//   - Message protocol definition for client/server communication
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with dragonboat's logger facade
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication, with a flexible
//     structure that adapts to the different map operations. Includes factory
//     methods for creating the request and response messages.
//
//   - MessageType: Enumeration defining all supported operation types,
//     the expiring map operations and control messages.
//
//   - ServerConfig: Configuration of a server process: the maps (shards) it hosts,
//     the HTTP endpoint and the log level.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
//
//   - Logger: dragonboat's logger.ILogger implemented on top of zap, so every package
//     logs through logger.GetLogger(name) with one consistent format.
package common
