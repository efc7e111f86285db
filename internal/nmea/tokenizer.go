// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import "bytes"

// MaxTokens caps the number of fields kept per sentence. Fields past the cap
// are dropped.
const MaxTokens = 32

// Token is a view into the line being tokenized. It is only valid until the
// underlying buffer is reused.
type Token []byte

// First returns the first byte of the token, or 0 if it is empty.
func (t Token) First() byte {
	if len(t) == 0 {
		return 0
	}
	return t[0]
}

func (t Token) Empty() bool {
	return len(t) == 0
}

func (t Token) HasPrefix(prefix string) bool {
	return bytes.HasPrefix(t, []byte(prefix))
}

func (t Token) String() string {
	return string(t)
}

// Tokenizer splits one sentence into comma separated fields.
type Tokenizer struct {
	count  int
	tokens [MaxTokens]Token
}

// Tokenize strips the optional leading '$', the line terminator and a
// trailing "*XX" checksum from line, then splits the remainder on ','. It
// returns the number of tokens kept.
func (t *Tokenizer) Tokenize(line []byte) int {
	p := line
	if len(p) > 0 && p[0] == '$' {
		p = p[1:]
	}

	if n := len(p); n > 0 && p[n-1] == '\n' {
		p = p[:n-1]
		if n := len(p); n > 0 && p[n-1] == '\r' {
			p = p[:n-1]
		}
	}

	if n := len(p); n >= 3 && p[n-3] == '*' {
		p = p[:n-3]
	}

	t.count = 0
	if len(p) == 0 {
		return 0
	}

	for {
		i := bytes.IndexByte(p, ',')
		field := p
		if i >= 0 {
			field = p[:i]
		}

		if t.count < MaxTokens {
			t.tokens[t.count] = Token(field)
			t.count++
		}

		if i < 0 {
			break
		}
		p = p[i+1:]
	}

	return t.count
}

func (t *Tokenizer) Count() int {
	return t.count
}

// Get returns the token at index, or an empty token when index is out of
// range. Callers treat empty tokens as absent fields.
func (t *Tokenizer) Get(index int) Token {
	if index < 0 || index >= t.count {
		return Token{}
	}
	return t.tokens[index]
}
