package config

import "sync"

// ViewerSettings holds interactive viewer options changed at runtime
type ViewerSettings struct {
	mu           sync.RWMutex
	fpsLimit     int
	showLogPanel bool
}

var globalViewerSettings = &ViewerSettings{
	fpsLimit: 0, // uncapped, driven by present mode
}

// GetFPSLimit returns the frame cap, 0 meaning uncapped
func GetFPSLimit() int {
	globalViewerSettings.mu.RLock()
	defer globalViewerSettings.mu.RUnlock()
	return globalViewerSettings.fpsLimit
}

// SetFPSLimit sets the frame cap
func SetFPSLimit(limit int) {
	globalViewerSettings.mu.Lock()
	defer globalViewerSettings.mu.Unlock()

	if limit < 0 {
		limit = 0
	}
	if limit > 1000 {
		limit = 1000
	}
	globalViewerSettings.fpsLimit = limit
}

// GetShowLogPanel reports whether the log overlay is visible
func GetShowLogPanel() bool {
	globalViewerSettings.mu.RLock()
	defer globalViewerSettings.mu.RUnlock()
	return globalViewerSettings.showLogPanel
}

// ToggleLogPanel flips log overlay visibility
func ToggleLogPanel() bool {
	globalViewerSettings.mu.Lock()
	defer globalViewerSettings.mu.Unlock()
	globalViewerSettings.showLogPanel = !globalViewerSettings.showLogPanel
	return globalViewerSettings.showLogPanel
}
