// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrivateDirPerm is used for parent directories created by AtomicWriteFile.
// Everything written through it lives under the user's configuration
// directory, next to api keys.
const PrivateDirPerm os.FileMode = 0700

// AtomicWriteFile replaces path with data. Readers see either the previous
// content or all of data, never a partial file. Missing parent directories
// are created with PrivateDirPerm.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), PrivateDirPerm); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmp, err := writeTemp(filepath.Dir(target), data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	return nil
}

// writeTemp writes data to a synced, closed temp file in dir and returns its
// name. The rename must stay on one filesystem, and Windows cannot rename an
// open file.
func writeTemp(dir string, data []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(dir, ".personachat-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()

	err = func() error {
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("failed to write data: %w", err)
		}
		if err := f.Sync(); err != nil {
			return fmt.Errorf("failed to sync data to disk: %w", err)
		}
		return nil
	}()
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close temp file: %w", cerr)
	}
	if err == nil {
		if cerr := os.Chmod(name, perm); cerr != nil {
			err = fmt.Errorf("failed to set file permissions: %w", cerr)
		}
	}
	if err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}
