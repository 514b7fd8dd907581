// Package testing provides standardised tests and benchmarks for
// implementations of the expmap.IExpireMap interface.
//
// The package contains:
//   - expmap_testing: A test suite for the expiry contract (visibility, eviction, overwrite, remove, close)
//   - expmap_benchmarks: Performance tests for the common map operations under parallel load
//
// Eviction is asynchronous, so the suite polls with testify's Eventually instead of sleeping for a
// fixed time. A failing test means the reclaimer did not evict within two seconds.
//
// Example usage:
//
//	factory := func() expmap.IExpireMap[string, []byte] {
//		return expmap.NewExpireMap[string, []byte](nil)
//	}
//
//	// Running the standard test suite
//	testing.RunExpireMapTests(t, "ExpireMap", factory)
//
//	// Running performance benchmarks
//	testing.RunExpireMapBenchmarks(b, "ExpireMap", factory)
package testing
