package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf *core.Config
	out  io.Writer

	// opened on demand
	openDB      func() (*sql.DB, error)
	openService func() (*registration.Service, error)
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]     - run a goose migration command (up, down, status, ...)")
	fmt.Println("  token                      - prompt for the admin password and print an admin JWT")
	fmt.Println("  hashpassword               - prompt for a password and print its bcrypt hash")
	fmt.Println("  export -event NAME         - print an event's submissions as CSV")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportEvent := exportCmd.String("event", "", "The event whose submissions are exported.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "token":
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.token(pwd)

	case "hashpassword":
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(pwd)

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportEvent == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(*exportEvent)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) readPassword() ([]byte, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	return pwd, err
}
