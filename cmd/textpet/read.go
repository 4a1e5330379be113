package main

import (
	"fmt"
	"io/ioutil"

	"github.com/HikariCalyx/TextPet/msgcore"
)

type ReadCmd struct {
	Filename string `arg help:"Binary file to read a script from."`
	Offset   int    `optional help:"Byte offset to start reading at." type:"hex" default:"0"`
	MaxBytes int    `optional name:"max-bytes" help:"Maximum bytes to read, 0 for unbounded."`
	Hex      bool   `optional help:"Print a hex dump of the consumed bytes alongside the script."`
}

func (r *ReadCmd) Run(c *Context) error {
	data, err := ioutil.ReadFile(r.Filename)
	if err != nil {
		return err
	}

	script, end, err := c.driver.ReadBinary(data, r.Offset, r.MaxBytes)
	if err != nil {
		return err
	}
	consumed := end - r.Offset

	archive := &msgcore.TextArchive{Identifier: fmt.Sprintf("%06X", r.Offset), Scripts: []*msgcore.Script{script}}
	fmt.Print(msgcore.FormatTPL(archive))
	fmt.Printf("; %d bytes consumed\n", consumed)

	if r.Hex {
		raw := data[r.Offset:end]
		var mark []bool
		if rewritten, err := c.driver.WriteBinary(script); err == nil {
			mark = mismatchMarks(raw, rewritten)
		}
		fmt.Print(hexdump(r.Offset, raw, mark))
	}
	return nil
}
