// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jcluts/personachat/internal/config"
)

// HandleInit writes sample documents to --config-dir,
// $PERSONACHAT_CONFIG_DIR or ~/.personachat.
func HandleInit(args Args, s Streams) error {
	dir := args.ConfigDir
	if dir == "" {
		dir = os.Getenv(config.EnvConfigDir)
	}
	if dir == "" {
		var err error
		if dir, err = config.DefaultDir(); err != nil {
			return NewCommandError("init", "locate", "cannot determine configuration directory", err)
		}
	}

	written, err := config.WriteSample(dir, args.Force)
	if err != nil {
		return NewCommandError("init", "write", "cannot write sample configuration", err)
	}

	fmt.Fprintln(s.Stdout, RenderTitle("Sample configuration written"))
	for _, path := range written {
		fmt.Fprintf(s.Stdout, "  %s\n", path)
	}
	fmt.Fprintln(s.Stdout)
	fmt.Fprintf(s.Stdout, "Next: add your keys to %s (or set %s),\n",
		filepath.Join(dir, config.DocAPIKeys+".toml"), config.CredentialEnvVar("openai"))
	fmt.Fprintln(s.Stdout, "then run 'personachat check' and 'personachat'.")
	return nil
}
