// Package effects implements the six single-buffer transforms exposed
// by the processing engine: reverb, echo, chorus, distortion,
// compression, and equalization.
//
// Every effect blends its processed ("wet") signal with the untouched
// ("dry") input as dry*(1-wetLevel) + wet*wetLevel, so a wet level of 0
// always returns the input unchanged. Effects operate on whole buffers
// channel by channel and return a new buffer of identical shape.
package effects
