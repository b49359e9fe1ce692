package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FailureRecording decides whether rejected use/cancel requests leave a FAIL entry
type FailureRecording string

const (
	FailureRecordingOnRejection FailureRecording = "on_rejection"
	FailureRecordingDisabled    FailureRecording = "disabled"
)

type LockBackend string

const (
	LockBackendRedis LockBackend = "redis"
	LockBackendLocal LockBackend = "local"
)

type LedgerConfig struct {
	LockWaitTimeout    time.Duration
	LockHoldTimeout    time.Duration
	LockRetryInterval  time.Duration
	LockKeyPrefix      string
	LockBackend        LockBackend
	MaxAccountsPerUser int
	FirstAccountNumber string
	CancelWindowYears  int
	FailureRecording   FailureRecording
	MinAmount          int64
	MaxAmount          int64
}

func LoadLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		LockWaitTimeout:    getEnvAsDuration("LEDGER_LOCK_WAIT_TIMEOUT", 1*time.Second),
		LockHoldTimeout:    getEnvAsDuration("LEDGER_LOCK_HOLD_TIMEOUT", 5*time.Second),
		LockRetryInterval:  getEnvAsDuration("LEDGER_LOCK_RETRY_INTERVAL", 50*time.Millisecond),
		LockKeyPrefix:      getEnv("LEDGER_LOCK_KEY_PREFIX", "ACLK"),
		LockBackend:        LockBackend(strings.ToLower(getEnv("LEDGER_LOCK_BACKEND", string(LockBackendRedis)))),
		MaxAccountsPerUser: getEnvAsInt("LEDGER_MAX_ACCOUNTS_PER_USER", 10),
		FirstAccountNumber: getEnv("LEDGER_FIRST_ACCOUNT_NUMBER", "1000000000"),
		CancelWindowYears:  getEnvAsInt("LEDGER_CANCEL_WINDOW_YEARS", 1),
		FailureRecording:   FailureRecording(strings.ToLower(getEnv("LEDGER_FAILURE_RECORDING", string(FailureRecordingOnRejection)))),
		MinAmount:          getEnvAsInt64("LEDGER_MIN_AMOUNT", 10),
		MaxAmount:          getEnvAsInt64("LEDGER_MAX_AMOUNT", 1_000_000_000),
	}
}

// Validate rejects settings that would weaken mutual exclusion or the account rules
func (c *LedgerConfig) Validate() error {
	var errs []error
	if c.LockWaitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LEDGER_LOCK_WAIT_TIMEOUT must be positive, got %s", c.LockWaitTimeout))
	}
	if c.LockHoldTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LEDGER_LOCK_HOLD_TIMEOUT must be positive, got %s", c.LockHoldTimeout))
	}
	if c.LockRetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("LEDGER_LOCK_RETRY_INTERVAL must be positive, got %s", c.LockRetryInterval))
	}
	if c.LockBackend != LockBackendRedis && c.LockBackend != LockBackendLocal {
		errs = append(errs, fmt.Errorf("LEDGER_LOCK_BACKEND must be %q or %q, got %q", LockBackendRedis, LockBackendLocal, c.LockBackend))
	}
	if c.FailureRecording != FailureRecordingOnRejection && c.FailureRecording != FailureRecordingDisabled {
		errs = append(errs, fmt.Errorf("LEDGER_FAILURE_RECORDING must be %q or %q, got %q",
			FailureRecordingOnRejection, FailureRecordingDisabled, c.FailureRecording))
	}
	if c.MaxAccountsPerUser <= 0 {
		errs = append(errs, fmt.Errorf("LEDGER_MAX_ACCOUNTS_PER_USER must be positive, got %d", c.MaxAccountsPerUser))
	}
	if c.CancelWindowYears <= 0 {
		errs = append(errs, fmt.Errorf("LEDGER_CANCEL_WINDOW_YEARS must be positive, got %d", c.CancelWindowYears))
	}
	if !isAccountNumber(c.FirstAccountNumber) {
		errs = append(errs, fmt.Errorf("LEDGER_FIRST_ACCOUNT_NUMBER must be 10 digits, got %q", c.FirstAccountNumber))
	}
	if c.MinAmount <= 0 || c.MaxAmount < c.MinAmount {
		errs = append(errs, fmt.Errorf("amount bounds must satisfy 0 < LEDGER_MIN_AMOUNT <= LEDGER_MAX_AMOUNT, got %d..%d",
			c.MinAmount, c.MaxAmount))
	}
	return errors.Join(errs...)
}

func isAccountNumber(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// RecordsFailures reports whether rejected mutations must be written as FAIL entries
func (c *LedgerConfig) RecordsFailures() bool {
	return c.FailureRecording != FailureRecordingDisabled
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
