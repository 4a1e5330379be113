package main

import (
	"fmt"
	"io/ioutil"
)

type TestCmd struct {
	Filename string `arg help:"Binary file to round-trip test."`
	Offset   int    `optional help:"Byte offset to start reading at." type:"hex" default:"0"`
}

func (t *TestCmd) Run(c *Context) error {
	data, err := ioutil.ReadFile(t.Filename)
	if err != nil {
		return err
	}

	script, end, err := c.driver.ReadBinary(data, t.Offset, 0)
	if err != nil {
		return err
	}

	if err := c.driver.TestRoundTrip(script); err != nil {
		return err
	}

	fmt.Printf("Round trip OK (%d bytes read).\n", end-t.Offset)
	return nil
}
