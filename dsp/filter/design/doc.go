// Package design computes biquad coefficients: RBJ cookbook lowpass,
// highpass, and bandpass sections, and Butterworth cascades of
// arbitrary order built from them.
package design
