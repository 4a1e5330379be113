package main

import (
	"fmt"

	"github.com/fatih/color"
)

// hexdump renders data as a classic 32-bytes-per-line hex+ASCII dump,
// highlighting any byte whose corresponding mark entry is true. mark, if
// non-nil, must be the same length as data. Used by read --hex and scan
// --hex to flag bytes where re-serialising a script disagrees with the
// bytes it was read from, see mismatchMarks.
func hexdump(offset int, data []byte, mark []bool) string {
	var result string
	red := color.New(color.FgRed)

	for len(data) > 0 {
		l := len(data)
		if l > 32 {
			l = 32
		}
		work := data[:l]
		data = data[l:]
		var workMark []bool
		if mark != nil {
			workMark = mark[:l]
			mark = mark[l:]
		}

		var workHex string
		var workAscii string
		for i := 0; i < 32; i++ {
			m := byte(0)
			valid := i < len(work)
			delta := false
			if valid {
				m = work[i]
				if workMark != nil && workMark[i] {
					delta = true
				}
			}

			if valid {
				if delta {
					workHex += red.Sprintf("%02x ", m)
				} else {
					workHex += fmt.Sprintf("%02x ", m)
				}

				if m < 32 || m > 126 {
					m = '.'
				}
				if delta {
					workAscii += red.Sprintf("%c", m)
				} else {
					workAscii += fmt.Sprintf("%c", m)
				}
			} else {
				workHex += "   "
				workAscii += " "
			}
			if i%8 == 7 {
				workHex += " "
			}
		}

		result += fmt.Sprintf("%08x  %s|%s|\n", offset, workHex, workAscii)
		offset += l
	}

	return result
}

// mismatchMarks diffs raw (bytes as read) against rewritten (the same
// script re-serialised by BinaryScriptWriter) and marks every byte that
// doesn't round-trip: a changed byte, or one past the end of rewritten
// entirely (the tail a command's RewindCount trimmed away on write).
func mismatchMarks(raw, rewritten []byte) []bool {
	mark := make([]bool, len(raw))
	for i := range raw {
		if i >= len(rewritten) || raw[i] != rewritten[i] {
			mark[i] = true
		}
	}
	return mark
}
