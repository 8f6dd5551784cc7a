// Package cli parses murmur command lines and renders help text.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandRun      Command = "run"
	CommandToggle   Command = "toggle"
	CommandHoldDown Command = "hold-down"
	CommandHoldUp   Command = "hold-up"
	CommandStop     Command = "stop"
	CommandCancel   Command = "cancel"
	CommandStatus   Command = "status"
	CommandReload   Command = "reload"
	CommandDevices  Command = "devices"
	CommandHistory  Command = "history"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"
)

// DefaultHistoryLimit is the number of entries "history" prints without an argument.
const DefaultHistoryLimit = 20

var validCommands = map[Command]struct{}{
	CommandRun:      {},
	CommandToggle:   {},
	CommandHoldDown: {},
	CommandHoldUp:   {},
	CommandStop:     {},
	CommandCancel:   {},
	CommandStatus:   {},
	CommandReload:   {},
	CommandDevices:  {},
	CommandHistory:  {},
	CommandDoctor:   {},
	CommandVersion:  {},
	CommandHelp:     {},
}

type Parsed struct {
	Command      Command
	ConfigPath   string
	ShowHelp     bool
	HistoryLimit int
}

// Forwarded reports whether the command is sent to the running daemon.
func (c Command) Forwarded() bool {
	switch c {
	case CommandToggle, CommandHoldDown, CommandHoldUp, CommandStop, CommandCancel, CommandReload:
		return true
	default:
		return false
	}
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			rest := args[i+1:]
			if cmd == CommandHistory {
				limit, err := parseHistoryLimit(rest)
				if err != nil {
					return Parsed{}, err
				}
				parsed.HistoryLimit = limit
				return parsed, nil
			}
			if len(rest) > 0 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func parseHistoryLimit(rest []string) (int, error) {
	switch len(rest) {
	case 0:
		return DefaultHistoryLimit, nil
	case 1:
		n, err := strconv.Atoi(rest[0])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("history count must be a positive integer, got %q", rest[0])
		}
		return n, nil
	default:
		return 0, errors.New(`unexpected arguments after command "history"`)
	}
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  run         Start the dictation daemon (key hook, IPC socket, config watcher)
  toggle      Start dictation, or stop and deliver when a toggle session is active
  hold-down   Begin a hold-to-talk session (bind to key press)
  hold-up     End a hold-to-talk session and deliver (bind to key release)
  stop        Stop the active session in either mode and deliver
  cancel      Cancel the active session and discard its transcript
  status      Print the daemon state
  reload      Re-read the config file and re-register shortcuts
  devices     List available input devices
  history [N] Print the last N delivered transcripts (default %[2]d)
  doctor      Run configuration and environment checks
  version     Print version information
  help        Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/murmur/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName, DefaultHistoryLimit)
}
