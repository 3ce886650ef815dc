// Package credentials reads and writes the database credentials file the
// blog server connects with, and builds it from BLOG_DB_* environment
// variables.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrijs2005/goblog/internal/filex"
)

const (
	// DefaultPath is where the server looks for credentials when no path is configured.
	DefaultPath = "credentials.json"
	// DefaultExamplePath is where -example writes its sample file.
	DefaultExamplePath = "credentials.json.example"

	PasswordEnv = "BLOG_DB_PASSWORD"

	CursorDict  = "DictCursor"
	CursorTuple = "Cursor"
)

// requiredKeys must all be present in a credentials file.
var requiredKeys = []string{"host", "user", "password", "database", "cursor_class"}

var (
	ErrPasswordNotSet     = errors.New("Environment variable " + PasswordEnv + " must be set for database connection.")
	ErrInvalidCursorClass = errors.New("invalid cursor_class")
)

// Credentials are the database connection parameters. CursorClass selects
// the result shape; it is validated but rows are always scanned into structs.
type Credentials struct {
	Host        string `json:"host" env:"BLOG_DB_HOST" envDefault:"localhost"`
	Port        int    `json:"port,omitempty" env:"BLOG_DB_PORT" envDefault:"5432"`
	User        string `json:"user" env:"BLOG_DB_USER" envDefault:"root"`
	Password    string `json:"password" env:"BLOG_DB_PASSWORD"`
	Database    string `json:"database" env:"BLOG_DB_NAME" envDefault:"flask_db"`
	CursorClass string `json:"cursor_class" env:"BLOG_DB_CURSOR" envDefault:"DictCursor"`
}

// Example returns the placeholder values written by -example.
func Example() *Credentials {
	return &Credentials{
		Host:        "192.168.56.1",
		User:        "root",
		Password:    "root",
		Database:    "flask_db",
		CursorClass: CursorDict,
	}
}

// FromEnv builds credentials from environ (KEY -> value). The password
// variable has no default and must be present, even if empty.
func FromEnv(environ map[string]string) (*Credentials, error) {
	if _, ok := environ[PasswordEnv]; !ok {
		return nil, ErrPasswordNotSet
	}

	c := &Credentials{}
	if err := env.ParseWithOptions(c, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return c, c.Validate()
}

// Load reads a credentials file. Every key in requiredKeys must be present.
func Load(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	return Parse(data)
}

// Parse decodes a credentials document.
func Parse(data []byte) (*Credentials, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}

	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("missing credentials for %s", key)
		}
	}

	c := &Credentials{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	if c.Port == 0 {
		c.Port = 5432
	}

	return c, c.Validate()
}

// Validate checks the cursor class.
func (c *Credentials) Validate() error {
	switch c.CursorClass {
	case CursorDict, CursorTuple:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCursorClass, c.CursorClass)
	}
}

// DSN renders the credentials as a PostgreSQL URL for the pgx driver.
func (c *Credentials) DSN() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Write stores c at path as 4-space indented JSON readable only by the owner,
// creating missing parent directories.
func Write(path string, c *Credentials) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	if _, err := filex.EnsureParentDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// Clean removes the given credential artifacts and reports which existed.
func Clean(paths ...string) ([]string, error) {
	var removed []string
	for _, p := range paths {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed = append(removed, p)
		case errors.Is(err, os.ErrNotExist):
		default:
			return removed, err
		}
	}
	return removed, nil
}
