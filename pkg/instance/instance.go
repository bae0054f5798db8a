package instance

import (
	"os"
	"strings"
)

var idEnvKeys = []string{"TABLEORDER_INSTANCE_ID", "DYNO", "HOSTNAME"}

// GetID names this process in logs and cron lock ownership.
func GetID() string {
	for _, key := range idEnvKeys {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
