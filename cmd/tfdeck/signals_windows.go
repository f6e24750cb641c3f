//go:build windows

package main

// handleDumpSignal is a no-op: there is no SIGUSR1 on Windows.
func handleDumpSignal(string) (stop func()) { return func() {} }
