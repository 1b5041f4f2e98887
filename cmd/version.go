package cmd

import (
	"fmt"
	"os"
	"runtime"
)

// Version information (injected at build time via ldflags).
var (
	Version   = "development"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// runVersion prints version and environment information.
func runVersion() {
	fmt.Printf("ragbot %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Printf("Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Println()

	// Check API key presence without printing it in full.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		masked := "****"
		if len(key) >= 8 {
			masked = key[:4] + "..." + key[len(key)-4:]
		}
		fmt.Printf("GEMINI_API_KEY: %s (configured)\n", masked)
	} else {
		fmt.Println("GEMINI_API_KEY: not set")
		fmt.Println("Hint: export GEMINI_API_KEY=your-api-key")
	}
}
