// Package ingestion builds the requests that upload exposure
// notification data to the ingestion service.
//
// Genuine and dummy uploads go through the same [Builder]: they target
// the same endpoint with the same method, carry the same header names
// and cache policy, and dummy bodies are padded by a [DummyGenerator]
// so that their size follows the size of genuine uploads. The only
// difference on the wire is content an observer cannot see.
package ingestion
