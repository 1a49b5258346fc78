// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "fmt"

// HandlePrompt prints the composed system message, unstyled so it can be
// piped.
func HandlePrompt(args Args, s Streams) error {
	sess, err := openSession(args)
	if err != nil {
		return err
	}
	defer sess.close()

	fmt.Fprintln(s.Stdout, sess.Prompt.System.Content)
	return nil
}
