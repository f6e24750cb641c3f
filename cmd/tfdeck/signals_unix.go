//go:build !windows

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/asheshgoplani/tfdeck/internal/logging"
)

// handleDumpSignal writes the recent log tail to dir on SIGUSR1.
func handleDumpSignal(dir string) (stop func()) {
	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	done := make(chan struct{})

	go func() {
		log := logging.ForComponent(logging.CompUI)
		for {
			select {
			case <-usr1:
				path := filepath.Join(dir, fmt.Sprintf("crash-dump-%d.jsonl", time.Now().Unix()))
				if err := logging.DumpRecent(path); err != nil {
					log.Error("crash_dump_failed", slog.String("error", err.Error()))
				} else {
					log.Info("crash_dump_written", slog.String("path", path))
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(usr1)
		close(done)
	}
}
