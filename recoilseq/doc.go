// Package recoilseq expands a fixed recoil pattern preset into per-tick
// integer X/Y deltas scaled by a user coefficient and sensitivity, then
// emits one tick at a time on a host-report cadence.
//
// Expansion divides each group's (x, y, t) triple (x and y scaled by
// coefficient/sensitivity, t unscaled) across the group's report ticks by
// floor division. It then rounds the difference between the running sum
// of exact values and the running sum of stored ticks and, when that is
// positive, adds it one unit per tick onto the group's earliest ticks.
// After each group, the deltas emitted so far therefore sum to the exact
// running total rounded to an integer; a single group's own deltas can
// differ from its own rounded value by a unit carried from earlier groups.
package recoilseq
