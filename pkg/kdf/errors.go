package kdf

import (
	"errors"
	"fmt"
)

var (
	ErrHeaderNotFound = errors.New("invalid KDF file or header not found")
	ErrParserData     = errors.New("cannot convert data_size or data_offset to numeric type")
	ErrMalformedData  = errors.New("malformed channel data")
	ErrUnknownFormat  = errors.New("unknown format code")
)

// HeaderError reports why a header block could not be used.
type HeaderError struct {
	Tag   string
	Cause error
}

func (e *HeaderError) Error() string {
	if e.Cause == nil {
		return ErrHeaderNotFound.Error()
	}
	return fmt.Sprintf("%s: %v", ErrHeaderNotFound, e.Cause)
}

func (e *HeaderError) Unwrap() error {
	return ErrHeaderNotFound
}

func headerErr(tag string, cause error) error {
	return &HeaderError{Tag: tag, Cause: cause}
}

// ChannelError reports a channel descriptor whose size or offset is unusable.
type ChannelError struct {
	Index int
	Label string
	Field string
	Cause error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %d (%s): %s: %v: %v", e.Index, e.Label, e.Field, ErrParserData, e.Cause)
}

func (e *ChannelError) Unwrap() error {
	return ErrParserData
}
