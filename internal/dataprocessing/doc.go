// Package dataprocessing implements the release-notes extraction and
// aggregation engine: the extractor that scans the raw wiki-storage
// export, the normalizer that turns fragments into typed Release
// records, the categorizer, and the pure aggregation/query functions
// consumed by the serving layer.
//
// Everything in this package is side-effect free; ingestion state and
// I/O live in the services layer.
package dataprocessing
