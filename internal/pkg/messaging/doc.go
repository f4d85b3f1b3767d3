// Package messaging provides a broker-agnostic API for publishing and consuming
// gameplay events.
//
// Usecases depend on Publisher/Consumer only; the driver (NATS, Kafka, NSQ or the
// in-process memory broker) is chosen by configuration.
package messaging
