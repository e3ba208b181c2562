// Package schema holds the Go bindings of the ADAr array message, generated from
// ADArray.fbs, and a verifier that checks an untrusted buffer before any field is
// read.
//
// Payload and attribute value bytes are carried verbatim in the byte order of the
// host that produced them. Consumers on a host of different endianness must swap
// them.
package schema

//go:generate flatc --go --go-namespace schema -o . ADArray.fbs
