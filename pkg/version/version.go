package version

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// Set at build time through -ldflags "-X github.com/neubio/neubio/pkg/version.gitTag=...".
var (
	gitVersion   = "neubio-%s"
	gitCommit    = "$Format:%H$"
	gitTreeState = ""
	gitTag       = ""
	buildDate    = "1970-01-01T00:00:00Z"
)

type Info struct {
	GitVersion   string `json:"gitVersion"`
	GitCommit    string `json:"gitCommit"`
	GitTreeState string `json:"gitTreeState"`
	BuildDate    string `json:"buildDate"`
	GoVersion    string `json:"goVersion"`
	Platform     string `json:"platform"`
}

func Get() Info {
	return Info{
		GitVersion:   fmt.Sprintf(gitVersion, gitTag),
		GitCommit:    gitCommit,
		GitTreeState: gitTreeState,
		BuildDate:    buildDate,
		GoVersion:    runtime.Version(),
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// GetVersionInfo returns the build information as JSON.
func GetVersionInfo() string {
	res, _ := json.Marshal(Get())
	return string(res)
}
