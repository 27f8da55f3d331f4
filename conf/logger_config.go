// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package conf

// LoggerConfig configures the node's logging output: an optional rotated
// file under DataDir/log plus the console. Rotation is size-based; old
// files age out by count (MaxBackups), by days (MaxAge), and optionally by
// the directory-wide TotalSizeCap janitor.
type LoggerConfig struct {
	// LogFile is the log file name. Empty means console-only output; a
	// relative name lands under NodeConfig.DataDir/log.
	LogFile string `json:"name" yaml:"name"`

	// Level is one of trace, debug, info, warn, error, fatal.
	Level string `json:"level" yaml:"level"`

	// MaxSize is the size in MB at which the current file is rotated.
	MaxSize int `json:"max_size" yaml:"max_size"`

	// MaxBackups bounds how many rotated files are kept; 0 keeps all
	// (MaxAge still applies).
	MaxBackups int `json:"max_count" yaml:"max_count"`

	// MaxAge is the retention in days for rotated files; 0 disables
	// age-based deletion (MaxBackups still applies).
	MaxAge int `json:"max_day" yaml:"max_day"`

	// Compress gzips rotated files.
	Compress bool `json:"compress" yaml:"compress"`

	// TotalSizeCap bounds the whole log directory in MB; when exceeded,
	// the oldest files are deleted by a background janitor. 0 disables it.
	TotalSizeCap int `json:"total_size_cap" yaml:"total_size_cap"`

	// LocalTime names rotated files in local time instead of UTC.
	LocalTime bool `json:"local_time" yaml:"local_time"`

	// Console duplicates file output to stdout.
	Console bool `json:"console" yaml:"console"`

	// JSONFormat switches the file formatter to JSON. When Console mirrors
	// file output, the console gets the same format; console-only output
	// (empty LogFile) always uses the text formatter.
	JSONFormat bool `json:"json_format" yaml:"json_format"`
}

// DefaultLoggerConfig is console-only at info level, with rotation limits
// sized for a long-running node once a file is configured.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		LogFile:      "",
		Level:        "info",
		MaxSize:      100,
		MaxBackups:   10,
		MaxAge:       30,
		Compress:     true,
		TotalSizeCap: 0,
		LocalTime:    true,
		Console:      true,
		JSONFormat:   true,
	}
}

// Validate repairs out-of-range rotation settings in place rather than
// rejecting the config: a node must come up with logging even when the
// file was hand-edited badly.
func (c *LoggerConfig) Validate() error {
	if c.MaxSize <= 0 {
		c.MaxSize = 100
	}
	if c.MaxBackups < 0 {
		c.MaxBackups = 10
	}
	if c.MaxAge < 0 {
		c.MaxAge = 30
	}
	return nil
}
