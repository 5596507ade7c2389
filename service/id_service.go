package service

import (
	"fmt"
	"strconv"

	"github.com/sony/sonyflake"
)

type sonyflakeUID struct {
	generator *sonyflake.Sonyflake
}

// NewUID returns the next connection ID.
func (s *sonyflakeUID) NewUID() (string, error) {
	id, err := s.generator.NextID()
	if err != nil {
		return "", fmt.Errorf("next id: %w", err)
	}

	return strconv.FormatUint(id, 10), nil
}

func NewSonyflakeUID(generator *sonyflake.Sonyflake) *sonyflakeUID {
	return &sonyflakeUID{
		generator: generator,
	}
}
