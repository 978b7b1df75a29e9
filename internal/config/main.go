package config

import (
	"time"
)

// Values resolved from flags and the environment by the command line.
var (
	LogLevel    = "info"
	LogFormat   = "auto"
	Database    = "./replays.db"
	PresetsFile string
	Preset      = "default"

	FPS          float64 = 60
	Seed         int64
	FailuresOnly bool
	Timeout      = 5 * time.Minute
)
