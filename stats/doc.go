// Package stats computes descriptive statistics over decoded sample buffers.
//
// Summaries are computed in two passes: the first pass accumulates the sum and
// mean, the second accumulates squared deviations from that mean. The
// standard deviation is the population form, the root mean square of the
// deviations:
//
//	sd = sqrt(Σ(x - mean)² / n)
//
// Buffers of every numeric sample type are widened to float64. Text buffers
// and empty input have no statistics; Summarize reports them with a
// StatisticsError and a Summary whose numeric fields are NaN.
package stats
