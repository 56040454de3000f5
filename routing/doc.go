// Package routing turns rule declarations into router inputs.
//
// ParseSelector splits a dotted selector such as "example.v1.Greeter.SayHello"
// into its namespace ("example.v1"), service ("Greeter") and method ("SayHello").
//
// NormalizePath rewrites "{name}" path parameters into the ":name" positional
// syntax used by the gateway router:
//
//	NormalizePath("/v1.1/{wallets}/{asset}") == "/v1.1/:wallets/:asset"
package routing
