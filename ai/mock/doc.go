// Package mock provides test doubles for the ai interfaces: a
// deterministic embedder, a switchable prober, and a provider bundling
// both. Default embeddings are hash-derived so the same text always
// yields the same vector.
package mock
