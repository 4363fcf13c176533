// Package mcpserver exposes the report generator as a Model Context Protocol
// (MCP) server, so AI assistants can generate, review, edit and export
// security scan reports through conversation.
//
// # Architecture
//
// The server is built on the official MCP Go SDK and exposes:
//
//   - Tools:     generate_report, get_report, list_reports, edit_vulnerability,
//     rename_report, finalize_report, delete_report, export_report,
//     dashboard, list_tools
//   - Resources: version info, the tool catalogue, gate presets and stored
//     reports by id
//   - Prompts:   a guided report review workflow
//
// Every tool reuses the same scan.Orchestrator and scan.Service as the CLI,
// so edits made here publish the same events and hit the same store.
//
// # Transports
//
//   - stdio:  Communicates over stdin/stdout. Used by IDE integrations.
//   - HTTP:   Streamable HTTP, with /health, CORS and a request rate limit.
//
// # Usage
//
//	srv, err := mcpserver.New(mcpserver.Config{Orchestrator: orch, Service: svc})
//	err = srv.RunStdio(ctx)
package mcpserver
