// Package event declares the message-queue topics and payloads shared between modules.
//
// Every topic has one consumer group per interested module; the group name is the topic
// suffixed with the module name.
package event
