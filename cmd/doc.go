// Package cmd implements the driftkv command line interface. It groups the
// key-value operations (put, get, perf) under the kv subcommand and wires
// configuration from flags, environment variables (DRIFTKV_ prefix) and
// optional .env files into the client.
package cmd
