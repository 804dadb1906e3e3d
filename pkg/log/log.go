// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Provides a simple way of logging with different levels.
// Time/Date are not logged because systemd adds
// them for us (Default, can be changed by flag '--logdate true').
//
// Uses these prefixes: https://www.freedesktop.org/software/systemd/man/sd-daemon.html

var logDateTime bool

var (
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
	CritWriter  io.Writer = os.Stderr
)

var (
	DebugPrefix string = "<7>[DEBUG]    "
	InfoPrefix  string = "<6>[INFO]     "
	WarnPrefix  string = "<4>[WARNING]  "
	ErrPrefix   string = "<3>[ERROR]    "
	CritPrefix  string = "<2>[CRITICAL] "
)

var (
	DebugLog *log.Logger
	InfoLog  *log.Logger
	WarnLog  *log.Logger
	ErrLog   *log.Logger
	CritLog  *log.Logger
)

func init() {
	updateLoggers()
}

func updateLoggers() {
	flags := 0
	if logDateTime {
		flags = log.LstdFlags
	}

	DebugLog = log.New(DebugWriter, DebugPrefix, flags)
	InfoLog = log.New(InfoWriter, InfoPrefix, flags)
	WarnLog = log.New(WarnWriter, WarnPrefix, flags|log.Lshortfile)
	ErrLog = log.New(ErrWriter, ErrPrefix, flags|log.Llongfile)
	CritLog = log.New(CritWriter, CritPrefix, flags|log.Llongfile)
}

// Init sets the log level and optionally enables timestamps.
// Anything below the selected level is discarded.
func Init(lvl string, logdate bool) {
	switch lvl {
	case "crit":
		ErrWriter = io.Discard
		fallthrough
	case "err", "fatal":
		WarnWriter = io.Discard
		fallthrough
	case "warn":
		InfoWriter = io.Discard
		fallthrough
	case "info":
		DebugWriter = io.Discard
	case "debug":
		// Nothing to do...
	default:
		fmt.Printf("pkg/log: Flag 'loglevel' has invalid value %#v\npkg/log: Will use default loglevel 'debug'\n", lvl)
	}

	logDateTime = logdate
	updateLoggers()
}

/* PRINT */

func Debug(v ...interface{}) {
	DebugLog.Output(2, fmt.Sprint(v...))
}

func Info(v ...interface{}) {
	InfoLog.Output(2, fmt.Sprint(v...))
}

func Print(v ...interface{}) {
	Info(v...)
}

func Warn(v ...interface{}) {
	WarnLog.Output(2, fmt.Sprint(v...))
}

func Error(v ...interface{}) {
	ErrLog.Output(2, fmt.Sprint(v...))
}

// Fatal writes to the critical logger and stops the process.
func Fatal(v ...interface{}) {
	CritLog.Output(2, fmt.Sprint(v...))
	os.Exit(1)
}

/* PRINT FORMAT */

func Debugf(format string, v ...interface{}) {
	DebugLog.Output(2, fmt.Sprintf(format, v...))
}

func Infof(format string, v ...interface{}) {
	InfoLog.Output(2, fmt.Sprintf(format, v...))
}

func Printf(format string, v ...interface{}) {
	Infof(format, v...)
}

func Warnf(format string, v ...interface{}) {
	WarnLog.Output(2, fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	ErrLog.Output(2, fmt.Sprintf(format, v...))
}

// Abortf writes the formatted message to the critical logger
// and stops the process.
func Abortf(format string, v ...interface{}) {
	CritLog.Output(2, fmt.Sprintf(format, v...))
	os.Exit(1)
}

func Fatalf(format string, v ...interface{}) {
	Abortf(format, v...)
}
