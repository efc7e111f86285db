// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux

package gnss

import "errors"

func OpenPowerLine(chip string, offset int) (PowerLine, error) {
	return nil, errors.New("gnss/OpenPowerLine: gpio is only supported on linux")
}
