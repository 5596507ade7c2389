package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/sonyflake"
)

func newUIDGenerator(startTime string, machineID uint16) (*sonyflake.Sonyflake, error) {
	start, err := time.Parse("2006-01-02", startTime)
	if err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}

	if start.After(time.Now()) {
		return nil, errors.New("UNIQUE_ID_GENERATOR_START_TIME must not be in the future")
	}

	settings := sonyflake.Settings{
		StartTime: start,
		MachineID: func() (uint16, error) {
			return machineID, nil
		},
	}

	return sonyflake.New(settings)
}
