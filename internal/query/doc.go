// Package query answers free text questions about stored captures. It renders
// the matching records as timestamped description lines and forwards them with
// the question to a chat completion endpoint.
package query
