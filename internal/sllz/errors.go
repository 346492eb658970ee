package sllz

import "errors"

var (
	// ErrBadMagic is returned when a payload doesn't start with "SLLZ".
	ErrBadMagic = errors.New("sllz: bad magic, expected SLLZ header")
	// ErrUnknownVersion is returned for a version byte other than 1 or 2.
	ErrUnknownVersion = errors.New("sllz: unknown version")
	// ErrExpansionOverflow is returned when the v1 encoder's output would
	// exceed its preallocated buffer.
	ErrExpansionOverflow = errors.New("sllz: v1 encode exceeded output buffer")
	// ErrInputTooSmall is returned when v2 encode is requested for a
	// payload shorter than the minimum viable chunked frame.
	ErrInputTooSmall = errors.New("sllz: input too small for v2 framing")
	// ErrChunkSizeMismatch is returned when a decoded v2 chunk's length
	// disagrees with its declared size.
	ErrChunkSizeMismatch = errors.New("sllz: v2 chunk decoded to unexpected size")
)
