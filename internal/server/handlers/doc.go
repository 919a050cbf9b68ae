// Package handlers contains the HTTP handlers of linkbio.
//
// This package provides handlers for:
//   - The JSON API used by the dashboard (auth, links, settings, analytics, uploads)
//   - Server-rendered pages (login, register, dashboard, settings, public profiles)
//   - Health and readiness endpoints (monitoring)
//   - Shared response helper functions
//
// API errors are written through the foundation/errors HTTPErrorAdapter so
// every failure has the same JSON shape. Page handlers render the failure
// message into the page instead.
package handlers
