package metrics

import "fmt"

// Tag creates a formatted DataDog tag string in "key:value" format.
func Tag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}

// SourceTag creates a fetch provenance tag (fresh/cache).
func SourceTag(source string) string {
	return Tag("source", source)
}

// OperationTag creates an operation tag.
func OperationTag(op string) string {
	return Tag("operation", op)
}

// StatusTag creates a status tag (hit/miss/error).
func StatusTag(status string) string {
	return Tag("status", status)
}

// TierTag creates a cache tier tag (memory/disk).
func TierTag(tier string) string {
	return Tag("tier", tier)
}

// StoreTag creates a cache store tag (records/blobs).
func StoreTag(store string) string {
	return Tag("store", store)
}

// CircuitStateTag creates a circuit breaker state tag.
func CircuitStateTag(state string) string {
	return Tag("circuit_state", state)
}
