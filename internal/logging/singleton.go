package logging

import (
	"io"
	"log"
	"sync"
)

var (
	instance *Logger
	mu       sync.RWMutex
)

// InitLogger builds the global logger from config, replacing any previous one.
func InitLogger(config *LogConfig) error {
	logger, err := NewLogger(config)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		instance.Close()
	}
	instance = logger
	return nil
}

// GetGlobalLogger returns the global logger.
// Before InitLogger is called it returns a logger that discards everything,
// so packages can log from tests without any setup.
func GetGlobalLogger() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		return discard
	}
	return instance
}

var discard = &Logger{Logger: log.New(io.Discard, "", 0), level: levelRank[LevelError]}
