// Package transport provides the stream pub/sub contract and its two
// implementations: a Kafka-backed broker client and an in-memory broker for
// tests and offline operation. Replication between the HQ and Edge streams is
// an external fabric concern; this package only addresses logical stream
// identities.
package transport
