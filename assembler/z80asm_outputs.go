// z80asm_outputs.go - LST, SYM and DUMP artifact generation

package main

import (
	"fmt"
	"strings"
)

// buildListing renders address, byte triplets and source per logical line.
func (a *Z80Assembler) buildListing() string {
	var sb strings.Builder
	for _, entry := range a.listing {
		if len(entry.bytes) == 0 {
			fmt.Fprintf(&sb, "%04X              %s\n", entry.addr, entry.src.text)
			continue
		}
		addr := entry.addr
		data := entry.bytes
		first := true
		for len(data) > 0 {
			n := 3
			if n > len(data) {
				n = len(data)
			}
			hex := make([]string, 0, 3)
			for _, b := range data[:n] {
				hex = append(hex, fmt.Sprintf("%02X", b))
			}
			src := ""
			if first {
				src = entry.src.text
				first = false
			}
			fmt.Fprintf(&sb, "%04X  %-12s%s\n", addr, strings.Join(hex, " "), src)
			addr += uint16(n)
			data = data[n:]
		}
	}
	return sb.String()
}

// buildSymbols renders the two-column symbol table, sorted by name.
func (a *Z80Assembler) buildSymbols() string {
	var sb strings.Builder
	for _, name := range a.sortedLabels() {
		fmt.Fprintf(&sb, "%-24s %04X\n", name, a.labels[name])
	}
	return sb.String()
}

// buildDump renders 16 bytes per row with an ASCII gutter.
func (a *Z80Assembler) buildDump(binary []byte) string {
	var sb strings.Builder
	for row := 0; row < len(binary); row += 16 {
		end := row + 16
		if end > len(binary) {
			end = len(binary)
		}
		fmt.Fprintf(&sb, "%04X  ", a.origin+uint16(row))
		for i := row; i < row+16; i++ {
			if i < end {
				fmt.Fprintf(&sb, "%02X ", binary[i])
			} else {
				sb.WriteString("   ")
			}
		}
		sb.WriteString(" ")
		for i := row; i < end; i++ {
			b := binary[i]
			if b >= 0x20 && b < 0x7F {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
