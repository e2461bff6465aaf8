package util

// DateFormat keys calendar days.
const DateFormat = "2006-01-02"

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)
