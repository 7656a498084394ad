// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger for CLI use: text output to w,
// no timestamps unless debugging, level parsed from level (default warn).
// verbose raises the level to at least debug.
func Setup(w io.Writer, level string, verbose bool) {
	log.SetOutput(w)

	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = log.WarnLevel
	}
	if verbose && lvl < log.DebugLevel {
		lvl = log.DebugLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp:       lvl < log.DebugLevel,
		FullTimestamp:          true,
		DisableLevelTruncation: true,
	})
}
