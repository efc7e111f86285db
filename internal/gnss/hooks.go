// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"context"
	"os/exec"
	"path/filepath"
	"time"
)

const hookTimeout = 10 * time.Second

// Hooks runs the optional "start" and "stop" executables from Dir. A hook
// that exits successfully takes over from the driver's own command.
type Hooks struct {
	Dir string
}

// Run executes the hook with the given name and reports whether it exited
// with status 0. A missing directory or hook reports false.
func (h Hooks) Run(ctx context.Context, name string) bool {
	if h.Dir == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, hookTimeout)
	defer cancel()

	return exec.CommandContext(ctx, filepath.Join(h.Dir, name)).Run() == nil
}
