package config

import (
	"errors"
	"fmt"
)

// Simulation validation errors.
var (
	ErrInvalidSteps      = errors.New("SIM_NT must be non-negative")
	ErrInvalidEndTime    = errors.New("SIM_T_END must be positive")
	ErrInvalidResolution = errors.New("SIM_NX must be at least 1")
	ErrInvalidEps        = errors.New("SIM_EPS must lie in [0, 1]")
)

// Simulation holds the constants of the periodic transport run.
type Simulation struct {
	Steps      int
	EndTime    float64
	Resolution int
	Eps        float64
	OutputV    string
	OutputP    string
	Clip       bool
	LogLevel   string
}

const (
	defaultSteps      = 100
	defaultEndTime    = 2.0
	defaultResolution = 20
	defaultEps        = 0.4
	defaultOutputV    = "testu.gif"
	defaultOutputP    = "testp.gif"
)

// LoadSimulation returns the simulation constants, overridable through SIM_* variables.
func LoadSimulation() (*Simulation, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Simulation{
		Steps:      parseIntDefault("SIM_NT", defaultSteps),
		EndTime:    parseFloatDefault("SIM_T_END", defaultEndTime),
		Resolution: parseIntDefault("SIM_NX", defaultResolution),
		Eps:        parseFloatDefault("SIM_EPS", defaultEps),
		OutputV:    getenvDefault("SIM_OUT_V", defaultOutputV),
		OutputP:    getenvDefault("SIM_OUT_P", defaultOutputP),
		Clip:       getenvDefault("SIM_CLIP", "false") == "true",
		LogLevel:   getenvDefault("LOG_LEVEL", defaultLogLevel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the simulation constants.
func (s *Simulation) Validate() error {
	if s.Steps < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSteps, s.Steps)
	}
	if s.EndTime <= 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidEndTime, s.EndTime)
	}
	if s.Resolution < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidResolution, s.Resolution)
	}
	if s.Eps < 0 || s.Eps > 1 {
		return fmt.Errorf("%w: got %g", ErrInvalidEps, s.Eps)
	}
	return nil
}

// TimeStep is EndTime divided over Steps. With zero steps it is EndTime itself.
func (s *Simulation) TimeStep() float64 {
	if s.Steps == 0 {
		return s.EndTime
	}
	return s.EndTime / float64(s.Steps)
}

// FramesPerSecond reproduces the animation speed of 0.1/dt frames per second.
func (s *Simulation) FramesPerSecond() float64 {
	return 0.1 / s.TimeStep()
}
