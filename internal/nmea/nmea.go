// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import (
	"fmt"
	"strings"

	gonmea "github.com/adrianmo/go-nmea"
)

// Sentence is an outgoing NMEA sentence, used to build commands for the
// receiver.
type Sentence struct {
	Type string
	Data []string
}

func (s Sentence) String() string {
	body := s.Type + "," + strings.Join(s.Data, ",")
	if len(s.Data) == 0 {
		// always make sure the type is followed by a comma if there is no data
		body = s.Type + ","
	}

	return fmt.Sprintf("$%s*%s", body, gonmea.Checksum(body))
}

// Bytes returns the sentence terminated with CRLF, ready to be written to a
// device.
func (s Sentence) Bytes() []byte {
	return append([]byte(s.String()), '\r', '\n')
}
