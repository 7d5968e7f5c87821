package util

import (
	"os"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

const machineAppID = "fast-note-graph-service"

var (
	machineID     string
	machineIDOnce sync.Once
)

// GetMachineID returns a stable per-host identifier, hashed with the app id so
// the raw machine id never leaves the process. Falls back to the hostname.
// GetMachineID 获取当前机器的唯一标识符，获取失败时回退为主机名
func GetMachineID() string {
	machineIDOnce.Do(func() {
		if id, err := machineid.ProtectedID(machineAppID); err == nil && id != "" {
			machineID = id
			return
		}
		if host, err := os.Hostname(); err == nil {
			machineID = host
		}
	})
	return machineID
}
