package main

import (
	"fmt"

	"github.com/danmuck/nativectl/internal/config"
)

func init() {
	cmd, err := parser.AddCommand("config", "Manage the settings file", "", &cmdConfig{})
	if err != nil {
		panic(err)
	}
	if _, err := cmd.AddCommand("init", "Write an annotated settings template", "", &cmdConfigInit{}); err != nil {
		panic(err)
	}
	if _, err := cmd.AddCommand("validate", "Check a settings file", "", &cmdConfigValidate{}); err != nil {
		panic(err)
	}
}

type cmdConfig struct{}

type cmdConfigInit struct {
	Output string `long:"output" short:"o" value-name:"FILE" default:"nativectl.toml" description:"Where to write the template"`
	Force  bool   `long:"force" description:"Overwrite an existing file"`
}

func (c *cmdConfigInit) Execute([]string) error {
	if err := config.WriteTemplate(c.Output, c.Force); err != nil {
		return err
	}
	fmt.Fprintf(Stdout, "Wrote config template to %s\n", c.Output)
	return nil
}

type cmdConfigValidate struct {
	Positional struct {
		File string `positional-arg-name:"FILE" required:"yes"`
	} `positional-args:"yes"`
}

// Execute loads the file and checks it. A missing host or key is allowed
// here since both may come from the command line or the environment.
func (c *cmdConfigValidate) Execute([]string) error {
	cfg, err := config.LoadFile(c.Positional.File)
	if err != nil {
		return err
	}
	if cfg.Host == "" {
		cfg.Host = "placeholder"
	}
	if cfg.Key == "" {
		cfg.Key = placeholderKey
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(Stdout, "Validated config at %s\n", c.Positional.File)
	return nil
}

// placeholderKey is 32 zero bytes in base64.
const placeholderKey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
