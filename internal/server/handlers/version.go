package handlers

import (
	"net/http"
	"runtime"
	"sync"

	"github.com/fulmenhq/gofulmen/crucible"
)

// Build metadata, set from main via SetVersionInfo.
var (
	AppName      = "blocktrail"
	AppVersion   = "dev"
	AppCommit    = "unknown"
	AppBuildDate = "unknown"
)

var (
	upstreamMu sync.RWMutex
	upstream   *UpstreamInfo
)

func SetVersionInfo(version, commit, buildDate string) {
	AppVersion = version
	AppCommit = commit
	AppBuildDate = buildDate
}

// SetUpstreamInfo records which API the gateway relays to. Nil clears it.
func SetUpstreamInfo(info *UpstreamInfo) {
	upstreamMu.Lock()
	defer upstreamMu.Unlock()
	upstream = info
}

type VersionResponse struct {
	App          AppInfo       `json:"app"`
	Upstream     *UpstreamInfo `json:"upstream,omitempty"`
	Dependencies DepInfo       `json:"dependencies"`
	Runtime      RuntimeInfo   `json:"runtime"`
}

type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// UpstreamInfo describes the Blocktrail endpoint and the quota shared by callers.
type UpstreamInfo struct {
	Endpoint    string `json:"endpoint"`
	Quota       int    `json:"quota"`
	Window      string `json:"window"`
	RateBackend string `json:"rate_backend"`
	Cache       bool   `json:"cache"`
}

type DepInfo struct {
	Gofulmen string `json:"gofulmen"`
	Crucible string `json:"crucible"`
}

type RuntimeInfo struct {
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

// VersionHandler serves build, upstream and runtime information.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	deps := crucible.GetVersion()

	upstreamMu.RLock()
	var info *UpstreamInfo
	if upstream != nil {
		copied := *upstream
		info = &copied
	}
	upstreamMu.RUnlock()

	writeJSON(w, http.StatusOK, VersionResponse{
		App: AppInfo{
			Name:      AppName,
			Version:   AppVersion,
			Commit:    AppCommit,
			BuildDate: AppBuildDate,
			GoVersion: runtime.Version(),
		},
		Upstream: info,
		Dependencies: DepInfo{
			Gofulmen: deps.Gofulmen,
			Crucible: deps.Crucible,
		},
		Runtime: RuntimeInfo{
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			NumCPU:        runtime.NumCPU(),
			NumGoroutines: runtime.NumGoroutine(),
		},
	})
}
