package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "cli":
		return cliTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `id = "ledgerd"
addr = ":9200"
cors_origins = ["http://localhost:3000"]
auth_token = ""
max_batch = 1024
rate_limit = 50.0
rate_burst = 100
hash = "blake2b-256"
# runtime = "runtime.toml"
max_extrinsic_bytes = 4194304
versions = [4]
`

const cliTemplate = `hash = "blake2b-256"
with_hash = false
# runtime = "runtime.toml"
max_extrinsic_bytes = 4194304
versions = [4]
`
