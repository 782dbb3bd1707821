package shared

import (
	"os"
	"strings"
)

// Feature flags are plain environment toggles. They decide which code path
// runs (API-backed vs local metadata, Google sign-in mounted or not) but
// never change the XP policy table.

func UseYouTubeAPI() bool {
	return envEnabled("USE_YOUTUBE_API")
}

func UseGoogleAuth() bool {
	return envEnabled("USE_GOOGLE_AUTH")
}

func envEnabled(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
