package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/HikariCalyx/TextPet/msgcore"
)

type PatchCmd struct {
	Base     string `arg help:"Binary file holding the base script (original command skeleton)."`
	BaseOff  int    `optional name:"base-offset" help:"Byte offset of the base script." type:"hex" default:"0"`
	Patch    string `arg help:"TPL file holding the patch script (authored translation)."`
	Output   string `arg help:"Binary file to write the patched script to."`
	Identify string `optional help:"Archive identifier to report in any error."`
}

func (p *PatchCmd) Run(c *Context) error {
	baseData, err := ioutil.ReadFile(p.Base)
	if err != nil {
		return err
	}
	baseScript, _, err := c.driver.ReadBinary(baseData, p.BaseOff, 0)
	if err != nil {
		return err
	}

	patchFile, err := os.Open(p.Patch)
	if err != nil {
		return err
	}
	patchScript, err := msgcore.ParseTPL(c.driver.DB, patchFile)
	patchFile.Close()
	if err != nil {
		return err
	}

	identifier := p.Identify
	if identifier == "" {
		identifier = fmt.Sprintf("%06X", p.BaseOff)
	}

	patched, err := msgcore.Patch(c.driver.DB, baseScript, patchScript, identifier)
	if err != nil {
		return err
	}

	data, err := c.driver.WriteBinary(patched)
	if err != nil {
		return err
	}

	if err := ioutil.WriteFile(p.Output, data, 0644); err != nil {
		return err
	}

	fmt.Printf("Patched %s, wrote %d bytes to %s.\n", identifier, len(data), p.Output)
	return nil
}
