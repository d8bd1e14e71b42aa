//go:build !windows
// +build !windows

package service

// ReportStartupError does nothing outside Windows; the startup error file
// and stderr carry the message there.
func ReportStartupError(err error) {}
