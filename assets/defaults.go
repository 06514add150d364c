package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration written to
// <project>/.vitals/config.yaml.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte
