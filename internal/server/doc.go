// Package server implements the MCP (Model Context Protocol) server for sky cube tools.
//
// This package provides a JSON-RPC 2.0 server that exposes gamma-ray sky
// cube analysis through the MCP protocol, so MCP-compatible clients can
// inspect diffuse emission models and counts cubes interactively.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Cube Information:
//   - cube_load: Load a cube and get geometry, energy axis and units
//   - cube_summary: Human-readable cube description
//
// Point Queries:
//   - cube_flux_at: Interpolated flux at a position and energy
//
// Image Operations:
//   - cube_sky_image: Render one energy plane as PNG
//   - cube_sky_image_integral: Render the band-integrated flux map
//   - cube_grid_overlay: Render a plane with a coordinate graticule
//
// Analysis Operations:
//   - cube_find_sources: Peak detection on the integrated map
//   - cube_spectrum: Region spectrum with reflected background
//
// # Cube Caching
//
// The server maintains an in-memory cache of loaded cubes. Cubes are cached
// by path and reused across multiple tool calls, avoiding repeated FITS
// parsing. The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
