package series

import "github.com/pkg/errors"

var (
	// ErrInvalidPeriod is returned when a window, span or lookback is not positive, or is too long
	// for the input to produce any defined value.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidParameter is returned for non-period parameters outside their domain.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrMisalignedInputs is returned when series that must share an index do not.
	ErrMisalignedInputs = errors.New("misaligned inputs")
	// ErrUnsortedIndex is returned when timestamps are not strictly increasing.
	ErrUnsortedIndex = errors.New("index is not strictly increasing")
	// ErrLengthMismatch is returned when an index and its values differ in length.
	ErrLengthMismatch = errors.New("index and values differ in length")
)
