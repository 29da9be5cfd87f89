// Package synthetic drives the provider's synthetic monitoring API: agent
// discovery, HTTP server test lifecycle, and result retrieval. It sits on top
// of apiclient, which owns retries, rate limiting, and backoff; this package
// only knows the endpoints and payload shapes.
package synthetic
