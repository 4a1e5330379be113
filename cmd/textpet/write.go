package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/HikariCalyx/TextPet/msgcore"
)

type WriteCmd struct {
	Filename string `arg help:"Text (TPL) script file to write back to binary."`
	Output   string `arg help:"Binary file to write."`
}

func (w *WriteCmd) Run(c *Context) error {
	f, err := os.Open(w.Filename)
	if err != nil {
		return err
	}
	defer f.Close()

	script, err := msgcore.ParseTPL(c.driver.DB, f)
	if err != nil {
		return err
	}

	data, err := c.driver.WriteBinary(script)
	if err != nil {
		return err
	}

	if err := ioutil.WriteFile(w.Output, data, 0644); err != nil {
		return err
	}

	fmt.Printf("Wrote %d bytes to %s.\n", len(data), w.Output)
	return nil
}
