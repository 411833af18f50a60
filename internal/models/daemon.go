package models

import (
	"time"

	"github.com/google/uuid"
)

// DaemonInfo represents the daemon connection information.
// This corresponds to ~/.lullaby/daemon.yaml.
type DaemonInfo struct {
	Version    int       `yaml:"version"`
	InstanceID string    `yaml:"instance_id"`
	Host       string    `yaml:"host"`
	Port       int       `yaml:"port"`
	PID        int       `yaml:"pid"`
	StartedAt  time.Time `yaml:"started_at"`
}

// NewDaemonInfo creates a new daemon info with current values.
func NewDaemonInfo(host string, port, pid int) *DaemonInfo {
	return &DaemonInfo{
		Version:    1,
		InstanceID: uuid.NewString(),
		Host:       host,
		Port:       port,
		PID:        pid,
		StartedAt:  time.Now().UTC(),
	}
}
