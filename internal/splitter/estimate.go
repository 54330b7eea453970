package splitter

// Size estimation for budget decisions.
//
// Estimates are the byte length of a fragment's serialized text in the
// decoded input encoding. They are an upper-bound approximation of on-disk
// size, not a guarantee: the postamble is not yet known while partitions are
// being accumulated, so a fixed reserve stands in for it. The same estimator
// is used for every decision, so relative comparisons against the budget
// stay meaningful even when absolute values drift.

// postambleReserve stands in for the trailing wrapper (end marker plus root
// close tag) before it has been read.
const postambleReserve = 128

// estimateRecord approximates the serialized size of one record, including
// the inter-record gap that precedes it.
func estimateRecord(gap, raw []byte) int {
	return len(gap) + len(raw)
}

// wrapperOverhead approximates the invariant per-partition cost.
func wrapperOverhead(preamble []byte) int {
	return len(preamble) + postambleReserve
}

// shouldFlush is the pure partition-boundary decision: flush before adding a
// record only when the partition already holds records and adding the next
// one would exceed the budget. A lone oversized record is never split; it
// ships as a one-record partition.
func shouldFlush(partRecords, currentSize, nextEstimate, budget int) bool {
	return partRecords > 0 && currentSize+nextEstimate > budget
}
