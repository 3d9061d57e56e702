package parser

import "fmt"

// DefaultSampleRate keeps one row out of every 60.
const DefaultSampleRate = 60

// ValidateStride rejects strides below 1.
func ValidateStride(stride int) error {
	if stride < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidStride, stride)
	}
	return nil
}

// Sample keeps the rows whose index is a multiple of stride. A stride of 1
// returns a copy of rows.
func Sample(rows []string, stride int) ([]string, error) {
	if err := ValidateStride(stride); err != nil {
		return nil, err
	}
	size := 0
	if len(rows) > 0 {
		size = (len(rows)-1)/stride + 1
	}
	sampled := make([]string, 0, size)
	for i := 0; i < len(rows); i += stride {
		sampled = append(sampled, rows[i])
	}
	return sampled, nil
}
