// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux

package gnss

import "os"

func openCharDevice(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR, 0)
}
