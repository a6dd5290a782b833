package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"falcon/internal/config"
)

func printHelp(w io.Writer) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgHiCyan)
	blue := color.New(color.FgHiBlue)
	yellow := color.New(color.FgYellow)

	bold.Fprint(w, "CSV toolkit for column/row selecting, cell content replacing/transforming and number rounding\n\n")
	green.Fprint(w, "Usage:\n")

	usage := []struct{ args, desc string }{
		{" [input].csv", "process [input].csv using config from env, create [input]_1.csv"},
		{" [input].csv [output].csv", "process [input].csv using config from env, create [output].csv"},
		{" [input].csv [output].csv [conf.toml]", "process [input].csv using config from [conf.toml], create [output].csv"},
		{" validate [conf.toml]", "check a config file"},
		{" probe [input].csv", "print a starter config for [input].csv"},
	}
	for _, u := range usage {
		cyan.Fprint(w, "falcon")
		blue.Fprintln(w, u.args)
		fmt.Fprintf(w, "    %s\n", u.desc)
	}

	fmt.Fprint(w, "\nuse ")
	yellow.Fprintf(w, "set %s=your_config_file.toml", config.EnvVar)
	fmt.Fprint(w, " to specify a configuration file from env\n")
	fmt.Fprintf(w, "\nCurrent version: %s, see %s for more information.\n", version, projectURL)
}

func printError(w io.Writer, msg string) {
	color.New(color.FgRed).Fprintln(w, msg)
}

func printTimeCost(w io.Writer, d time.Duration) {
	color.New(color.FgGreen).Fprint(w, "Finished")
	fmt.Fprintf(w, " in %d ms\n", d.Milliseconds())
}

func printIssues(w io.Writer, issues []config.Issue) {
	for _, iss := range issues {
		c := color.New(color.FgYellow)
		if iss.Severity == config.SeverityError {
			c = color.New(color.FgRed)
		}
		c.Fprintln(w, iss.String())
	}
}
