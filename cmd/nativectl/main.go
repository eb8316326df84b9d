package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/danmuck/nativectl/internal/logging"
	"github.com/danmuck/nativectl/internal/probe"
	"github.com/danmuck/nativectl/internal/protocol"
)

// keyEnv names the variable that may carry the base64 encryption key.
const keyEnv = "NATIVECTL_KEY"

var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr

	opts   struct{}
	parser = flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
)

const (
	shortHelp = "Discover the entities of an ESPHome device"
	longHelp  = `
nativectl connects to an ESPHome device over the encrypted native API,
lists its entities and prints the REST endpoints of its web server.
Optionally it tests those endpoints and writes a web dashboard for them.
`
)

func main() {
	logging.ConfigureRuntime()
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintf(Stderr, "WARNING: cannot load .env: %v\n", err)
	}
	if code := run(os.Args[1:]); code != 0 {
		os.Exit(code)
	}
}

// run parses and executes args and returns the process status. Errors are
// reported on Stderr only when the status is non-zero.
func run(args []string) int {
	err := parseArgs(args)
	if err == nil {
		return 0
	}
	var ferr *flags.Error
	if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
		fmt.Fprintln(Stdout, err)
		return 0
	}
	code := exitCode(err)
	if code != 0 {
		fmt.Fprintf(Stderr, "error: %v\n", err)
	}
	return code
}

func parseArgs(args []string) error {
	parser.ShortDescription = shortHelp
	parser.LongDescription = longHelp
	_, err := parser.ParseArgs(args)
	return err
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// exitCode maps an error class to the process status.
func exitCode(err error) int {
	var ferr *flags.Error
	if errors.As(err, &ferr) {
		return 2
	}
	if errors.Is(err, probe.ErrEndpointsFailed) {
		return 7
	}
	switch protocol.Classify(err) {
	case protocol.ClassNone, protocol.ClassDisconnect:
		return 0
	case protocol.ClassConfiguration:
		return 2
	case protocol.ClassProtocol:
		return 3
	case protocol.ClassHandshake:
		return 4
	case protocol.ClassAuthentication:
		return 5
	case protocol.ClassTransport:
		return 6
	default:
		return 1
	}
}
