package main

import (
	"fmt"
)

type ListIndexCmd struct {
}

func (l *ListIndexCmd) Run(c *Context) error {
	entries := c.driver.Index.Entries()
	fmt.Printf("%-8s %-6s %-5s %s\n", "OFFSET", "SIZE", "FLAGS", "POINTERS")
	for _, e := range entries {
		flags := ""
		if e.Compressed {
			flags += "C"
		}
		if e.SizeHeader {
			flags += "H"
		}
		if flags == "" {
			flags = "-"
		}
		fmt.Printf("%06X   %06X %-5s", e.Offset, e.Size, flags)
		for _, p := range e.Pointers {
			fmt.Printf(" %06X", p)
		}
		fmt.Println()
	}
	return nil
}
