// Package services holds the application state and business operations
// behind the HTTP handlers. ReleaseService owns the ingested release
// collection and answers queries against an immutable snapshot of it;
// HealthService reports liveness and ingestion status.
package services
