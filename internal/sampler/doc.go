// Package sampler walks a decoded video once and yields candidate frames at a
// fixed interval.
//
// A Handle wraps a Decoder and may be sampled exactly once; Sample closes it
// on every exit path, including a consumer that stops ranging early. Decode
// failures surface as *DecodeError after any candidates already produced, so
// callers can keep a partial result.
package sampler
