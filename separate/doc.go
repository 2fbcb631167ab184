// Package separate splits a mixed recording into vocal and
// instrumental stems with frequency-domain masking. It is a heuristic
// split, not a learned model: energy inside the typical vocal band is
// boosted for the vocal stem and suppressed for the instrumental stem,
// and vice versa outside it.
package separate
