package main

import (
	"fmt"
	"strings"

	"github.com/miroslavpetrov/Serial-Console-Pro/codec"
	"github.com/miroslavpetrov/Serial-Console-Pro/terminal"
)

const helpText = `commands:
  :ascii            switch to ASCII display and input
  :hex              switch to hex display and input
  :crlf             toggle appending CRLF to sent lines
  :echo             toggle local echo
  :record           toggle session log recording
  :stats            print connection statistics
  :ports            list available serial ports
  :open [path]      open a port, by default the configured one
  :close            close the port
  :quit             exit`

// command runs a ':' command line and reports whether the terminal should exit.
func (a *app) command(line string) bool {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "ascii", "hex":
		format, _ := codec.ParseFormat(fields[0])
		a.sess.SetFormat(format)
		a.info(terminal.Info, terminal.MsgFormatChanged, format.String())
	case "crlf":
		a.sess.SetAppendCRLF(!a.sess.AppendCRLF())
		a.toggled("crlf", a.sess.AppendCRLF())
	case "echo":
		a.sess.SetLocalEcho(!a.sess.LocalEcho())
		a.toggled("echo", a.sess.LocalEcho())
	case "record":
		if a.recorder.Enabled() {
			a.saveRecording()
		} else {
			a.startRecording()
		}
	case "stats":
		a.printStatus()
	case "ports":
		for _, p := range a.sess.ListAvailablePorts() {
			fmt.Fprintln(a.out, "  "+p.String())
		}
	case "open":
		path := a.cfg.Port.Path
		if len(fields) > 1 {
			path = fields[1]
		}
		if path == "" {
			a.info(terminal.Warning, terminal.MsgNoPortSelected)
			return false
		}
		_ = a.open(path)
	case "close":
		a.sess.Close()
	case "quit", "exit", "q":
		return true
	case "help", "h", "?":
		fmt.Fprintln(a.out, helpText)
	default:
		a.info(terminal.Error, terminal.MsgInvalidInput, line)
	}

	return false
}

func (a *app) toggled(name string, on bool) {
	state := "off"
	if on {
		state = "on"
	}
	a.sink.Emit(terminal.NewLine(terminal.Info, name+": "+state))
}
