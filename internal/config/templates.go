package config

import (
	"fmt"
	"os"
)

// Template returns an annotated example config.
func Template() string {
	return configTemplate
}

// WriteTemplate writes Template to path, refusing to replace an existing
// file unless overwrite is set.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(configTemplate), 0o600)
}

const configTemplate = `# nativectl discovery settings. Command-line flags override these.

host = "192.168.1.100"
port = 6053

# API encryption key (base64, 32 bytes). May also come from NATIVECTL_KEY.
key = ""
password = ""

client_info = "nativectl"
connect_timeout = "10s"

# Whole-attempt retries for transport failures.
attempts = 1
retry_delay = "500ms"
retry_max_delay = "10s"

[probe]
enabled = false
timeout = "5s"

[dashboard]
dir = ""
lang = "js"

[metrics]
file = ""
`
