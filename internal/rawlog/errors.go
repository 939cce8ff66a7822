package rawlog

import "errors"

var (
	errBadMagic    = errors.New("rawlog: bad magic number")
	errNoMSB       = errors.New("rawlog: creator version missing MSB tag")
	errStructSize  = errors.New("rawlog: header/record struct size mismatch with this reader")
	errNotSeekable = errors.New("rawlog: source does not support seeking")
	errOutOfRange  = errors.New("rawlog: record index out of range")
)
