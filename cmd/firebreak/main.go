// Firebreak is a policy-enforcement proxy for LLM traffic.
//
// It sits between clients and an LLM provider, exposing an
// OpenAI-compatible chat completion endpoint. Every request is classified
// by intent, evaluated against a declarative policy, and either forwarded
// downstream or blocked. All outcomes are recorded in an append-only audit
// trail.
//
// Usage:
//
//	# Start the proxy with default configuration
//	firebreak run
//
//	# Start with a custom configuration file
//	firebreak run --config /path/to/config.yaml
//
//	# Validate a policy file
//	firebreak lint --file policies/policy.yaml
//
//	# Show version information
//	firebreak version
package main

func main() {
	Execute()
}
