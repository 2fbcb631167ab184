// Package buffer provides the multi-channel sample container shared by
// all processing stages. Channels are stored channel-major; the
// Interleave/Deinterleave pair bridges to the frame-major layout used
// by audio file encoders and decoders.
package buffer
