package main

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/trezcool/classroom/core/classroom"
	"github.com/trezcool/classroom/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sqlx.DB
	usrSvc *user.Service
	clsSvc *classroom.Service
	out    io.Writer
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	out := cli.out
	if out == nil {
		out = os.Stdout
	}
	_, _ = fmt.Fprintf(out, format, args...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  migrate COMMAND [ARGS]                                 - run a goose command (up, down, status, ...)\n")
	cli.printf("  adduser --email EMAIL --role student|teacher [--name NAME] - create a user; the password is prompted\n")
	cli.printf("  resetpassword --email EMAIL                            - reset a user's password; the password is prompted\n")
	cli.printf("  listusers [--role student|teacher]                     - list users, optionally filtered by role\n")
	cli.printf("  deleteclassroom --id ID                                - delete a classroom and all its coursework\n")
}

// newFlagSet returns a FlagSet reporting parse errors to the caller instead of exiting.
func (cli *commandLine) newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if cli.out != nil {
		fs.SetOutput(cli.out)
	}
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	cli.printf("%s", prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.printf("\n")
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		cmd := cli.newFlagSet("adduser")
		email := cmd.String("email", "", "The user's email.")
		role := cmd.String("role", "", "The user's role: student or teacher.")
		name := cmd.String("name", "", "The user's full name.")
		if err := parseFlags(cmd, args[2:]); err != nil {
			return err
		}
		if *email == "" || *role == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		confirm, err := cli.readPassword("Confirm password:")
		if err != nil {
			return err
		}
		return cli.addUser(*email, *role, *name, pwd, confirm)

	case "resetpassword":
		cmd := cli.newFlagSet("resetpassword")
		email := cmd.String("email", "", "The user's email. The password will be prompted next.")
		if err := parseFlags(cmd, args[2:]); err != nil {
			return err
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*email, pwd)

	case "listusers":
		cmd := cli.newFlagSet("listusers")
		roleStr := cmd.String("role", "", "Only list users with this role: student or teacher.")
		if err := parseFlags(cmd, args[2:]); err != nil {
			return err
		}
		var role user.Role
		if *roleStr != "" {
			var ok bool
			if role, ok = user.ParseRole(*roleStr); !ok {
				cmd.Usage()
				return errHelp
			}
		}
		return cli.listUsers(role)

	case "deleteclassroom":
		cmd := cli.newFlagSet("deleteclassroom")
		id := cmd.Int("id", 0, "The classroom's ID.")
		if err := parseFlags(cmd, args[2:]); err != nil {
			return err
		}
		if *id <= 0 {
			cmd.Usage()
			return errHelp
		}
		return cli.deleteClassroom(*id)

	default:
		cli.printUsage()
		return errHelp
	}
}
