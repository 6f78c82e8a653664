package system

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// StartProfiling starts CPU profiling into cpuprofile and returns the function
// that stops it. An empty path disables profiling.
//
// The resulting profile can be analyzed using:
//   - go tool pprof [binary] [profile_file]
func StartProfiling(cpuprofile string) (stop func(), err error) {
	if cpuprofile == "" {
		return func() {}, nil
	}

	f, err := os.Create(cpuprofile)
	if err != nil {
		return nil, fmt.Errorf("could not create cpu profile file: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not start cpu profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}

// WriteHeapProfile writes a heap profile to memprofile. It should be called
// right before the program terminates. An empty path is a no-op.
func WriteHeapProfile(memprofile string) error {
	if memprofile == "" {
		return nil
	}

	f, err := os.Create(memprofile)
	if err != nil {
		return fmt.Errorf("could not create memory profile file: %w", err)
	}
	defer f.Close()

	runtime.GC() // get up-to-date statistics
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	return nil
}
