package main

import (
	"fmt"
	"os"

	"github.com/HikariCalyx/TextPet/msgcore"
	"github.com/HikariCalyx/TextPet/msgcore/msgtext"
	"github.com/alecthomas/kong"
)

// Context is the handle threaded through every subcommand's Run, the
// same role the teacher's Context plays for its HAL-backed commands —
// here it carries the loaded database/encoding/index instead of an open
// USB device.
type Context struct {
	driver *msgcore.Driver
}

var CLI struct {
	CommandDatabase string `optional help:"Path to the command database file."`
	LookupTable     string `optional help:"Path to the lookup-table (.tbl) file."`
	Config          string `optional help:"Path to a TOML config naming command_database/lookup_table."`
	EntryIndex      string `optional help:"Path to the entry index file."`
	LogLevel        int    `optional help:"Higher values give more output."`

	Read      ReadCmd      `cmd help:"Read one script from a binary file and print it as text."`
	Write     WriteCmd     `cmd help:"Write a text script file back to binary."`
	Scan      ScanCmd      `cmd help:"Scan a ROM or file for text archives."`
	Patch     PatchCmd     `cmd help:"Patch a base script's text boxes from a patch script."`
	Test      TestCmd      `cmd help:"Round-trip test a binary script file."`
	Extract   ExtractCmd   `cmd help:"Extract printed text boxes from a script."`
	ListIndex ListIndexCmd `cmd name:"list-index" help:"List entries in the entry index file."`
}

func main() {
	k, err := kong.New(&CLI,
		kong.NamedMapper("int", intMapper{}),
		kong.NamedMapper("hex", intMapper{base: 16}))
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx, err := k.Parse(os.Args[1:])
	if err != nil {
		fmt.Println(err)
		return
	}

	c, err := newContext()
	if err != nil {
		fmt.Println("Failed to set up driver:", err)
		return
	}

	err = ctx.Run(c)
	ctx.FatalIfErrorf(err)
}

func newContext() (*Context, error) {
	commandDatabase := CLI.CommandDatabase
	lookupTable := CLI.LookupTable

	if CLI.Config != "" {
		fc, err := msgcore.LoadFileConfig(CLI.Config)
		if err != nil {
			return nil, err
		}
		if commandDatabase == "" {
			commandDatabase = fc.CommandDatabase
		}
		if lookupTable == "" {
			lookupTable = fc.LookupTable
		}
	}

	if commandDatabase == "" {
		return nil, fmt.Errorf("no command database given (use --command-database or --config)")
	}

	db, err := msgcore.LoadCommandDatabaseFile(commandDatabase)
	if err != nil {
		return nil, err
	}

	var table *msgtext.Table
	if lookupTable != "" {
		f, err := os.Open(lookupTable)
		if err != nil {
			return nil, err
		}
		table, err = msgtext.LoadTableFile(f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}

	config := msgcore.DriverConfig{
		EntryIndex: msgcore.EntryIndexConfig{
			Path:         CLI.EntryIndex,
			UpdateOnScan: true,
		},
		LogFunc: func(level int, format string, args ...interface{}) {
			if level > CLI.LogLevel {
				return
			}
			fmt.Printf("textpet(%d): %s\n", level, fmt.Sprintf(format, args...))
		},
	}

	driver := msgcore.NewDriver(db, table, config)

	if CLI.EntryIndex != "" {
		if _, err := os.Stat(CLI.EntryIndex); err == nil {
			if err := driver.LoadEntryIndexFile(); err != nil {
				return nil, err
			}
		}
	}

	return &Context{driver: driver}, nil
}
