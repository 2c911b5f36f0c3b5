package metrics

// HTTPDurationBuckets are latency buckets for request handling.
var HTTPDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// BackendDurationBuckets cover model calls, which run far longer than plain HTTP handling.
var BackendDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// SimilarityBuckets spread cosine scores across [0,1].
var SimilarityBuckets = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
