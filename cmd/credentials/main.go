// Command credentials writes the credentials.json file the blog server
// connects with, built from BLOG_DB_* environment variables.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/dmitrijs2005/goblog/internal/credentials"
	"github.com/dmitrijs2005/goblog/internal/server/config"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func main() {
	if err := run(os.Args[1:], config.Environ(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string, environ map[string]string, w io.Writer) error {
	fs := flag.NewFlagSet("credentials", flag.ContinueOnError)
	fs.SetOutput(w)

	example := fs.Bool("example", false, "write example credentials to "+credentials.DefaultExamplePath)
	output := fs.String("output", "", "output path")
	clean := fs.Bool("clean", false, "remove generated credentials files")
	prompt := fs.Bool("prompt", false, "read the database password from the terminal when "+credentials.PasswordEnv+" is unset")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *clean {
		return cleanArtifacts(w)
	}

	if *example {
		path := *output
		if path == "" {
			path = credentials.DefaultExamplePath
		}
		if err := credentials.Write(path, credentials.Example()); err != nil {
			return err
		}
		fmt.Fprintf(w, "Example credentials written to %s\n", path)
		return nil
	}

	path := *output
	if path == "" {
		path = credentials.DefaultPath
	}

	creds, err := credentials.FromEnv(environ)
	if errors.Is(err, credentials.ErrPasswordNotSet) && *prompt {
		pw, perr := getPassword(w)
		if perr != nil {
			return perr
		}
		environ = withPassword(environ, pw)
		creds, err = credentials.FromEnv(environ)
	}
	if err != nil {
		return err
	}

	if err := credentials.Write(path, creds); err != nil {
		return err
	}
	fmt.Fprintf(w, "Credentials written to %s\n", path)
	return nil
}

func cleanArtifacts(w io.Writer) error {
	removed, err := credentials.Clean(credentials.DefaultPath, credentials.DefaultExamplePath)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Fprintln(w, "No credentials artifacts found to remove.")
		return nil
	}
	fmt.Fprintf(w, "Removed: %s\n", strings.Join(removed, ", "))
	return nil
}

func getPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Database password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)

	if len(pw) == 0 {
		return "", credentials.ErrPasswordNotSet
	}
	return string(pw), nil
}

func withPassword(environ map[string]string, pw string) map[string]string {
	m := make(map[string]string, len(environ)+1)
	for k, v := range environ {
		m[k] = v
	}
	m[credentials.PasswordEnv] = pw
	return m
}
