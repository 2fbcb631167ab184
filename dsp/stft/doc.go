// Package stft provides forward and inverse short-time Fourier
// transforms over float64 signals. Analysis uses a periodic Hann
// window and half-spectrum frames; synthesis overlap-adds with
// window-sum normalization so analysis followed by synthesis
// reconstructs the input up to floating-point error.
package stft
