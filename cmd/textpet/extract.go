package main

import (
	"fmt"
	"io/ioutil"

	"github.com/HikariCalyx/TextPet/msgcore"
)

type ExtractCmd struct {
	Filename string `arg help:"Binary file to extract printed text boxes from."`
	Offset   int    `optional help:"Byte offset to start reading at." type:"hex" default:"0"`
}

func (e *ExtractCmd) Run(c *Context) error {
	data, err := ioutil.ReadFile(e.Filename)
	if err != nil {
		return err
	}

	script, _, err := c.driver.ReadBinary(data, e.Offset, 0)
	if err != nil {
		return err
	}

	for i, box := range msgcore.ExtractTextBoxes(script) {
		fmt.Printf("[%d] %s\n", i, box)
	}
	return nil
}
