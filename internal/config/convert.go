package config

import (
	"rimebridge/internal/logging"
	"rimebridge/internal/native"
)

// LoggingOptions converts the logging section for logging.New.
func (l LoggingConfig) LoggingOptions(component string) (*logging.Config, error) {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(l.Format)
	if err != nil {
		return nil, err
	}

	out := logging.DefaultConfig()
	out.Level = level
	out.Format = format
	out.Output = l.Output
	if l.FilePath != "" {
		out.FilePath = expandPath(l.FilePath)
	}
	out.Rotate.MaxSizeMB = int64(l.MaxSizeMB)
	out.Rotate.MaxBackups = l.MaxBackups
	out.Rotate.MaxAgeDays = l.MaxAgeDays
	out.RedactText = l.RedactText
	if component != "" {
		out.Component = component
	}
	return out, nil
}

// Traits returns the engine setup for the rime section.
func (r RimeConfig) Traits() native.Traits {
	return native.Traits{
		SharedDataDir:       expandPath(r.SharedDataDir),
		UserDataDir:         expandPath(r.UserDataDir),
		DistributionName:    r.DistributionName,
		DistributionCode:    r.DistributionCode,
		DistributionVersion: r.DistributionVersion,
		AppName:             r.AppName,
		LogDir:              expandPath(r.LogDir),
		MinLogLevel:         r.MinLogLevel,
	}
}
