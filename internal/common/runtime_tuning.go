package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Runtime profiles by host size. Sessions allocate little and are short, so
// the engine favours a moderate GOGC with a memory limit as backstop.
const (
	SmallServerGOGC     = 200
	SmallServerMemLimit = 1 * 1024 * 1024 * 1024 // 1GB
	SmallServerMaxProcs = 1

	MediumServerGOGC     = 300
	MediumServerMemLimit = 4 * 1024 * 1024 * 1024 // 4GB

	LargeServerGOGC     = 400
	LargeServerMemLimit = 8 * 1024 * 1024 * 1024 // 8GB
)

func detectServerProfile() (gogc int, memLimit int64, maxProcs int) {
	totalCPU := runtime.NumCPU()
	switch {
	case totalCPU <= 2:
		return SmallServerGOGC, int64(SmallServerMemLimit), SmallServerMaxProcs
	case totalCPU <= 8:
		return MediumServerGOGC, int64(MediumServerMemLimit), totalCPU
	default:
		return LargeServerGOGC, int64(LargeServerMemLimit), totalCPU
	}
}

// InitRuntime applies the detected profile. GOGC, GOMAXPROCS and GOMEMLIMIT
// set in the environment take precedence.
func InitRuntime() {
	defaultGOGC, defaultMemLimit, defaultMaxProcs := detectServerProfile()

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(defaultGOGC)
		log.Info().Int("GOGC", defaultGOGC).Msg("[runtime] Set GOGC")
	}

	if os.Getenv("GOMAXPROCS") == "" {
		if defaultMaxProcs < 1 {
			defaultMaxProcs = 1
		}
		runtime.GOMAXPROCS(defaultMaxProcs)
		log.Info().
			Int("GOMAXPROCS", defaultMaxProcs).
			Int("total_cpu", runtime.NumCPU()).
			Msg("[runtime] Set GOMAXPROCS")
	}

	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(defaultMemLimit)
		log.Info().
			Int64("GOMEMLIMIT_bytes", defaultMemLimit).
			Msg("[runtime] Set memory limit")
	}

	logRuntimeSettings()
}

func logRuntimeSettings() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Uint64("heap_alloc_mb", memStats.HeapAlloc/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] Current runtime settings")
}
