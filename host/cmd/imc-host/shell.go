package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/peterh/liner"

	"imcmotor/host/imc"
	"imcmotor/protocol"
)

var errQuit = errors.New("quit")

// shell runs operator commands against one controller
type shell struct {
	ctrl   *imc.Controller
	poller *imc.Poller
	out    io.Writer
}

func (s *shell) run(historyPath string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer saveHistory(line, historyPath)
	}

	fmt.Fprintln(s.out, "Enter commands (type 'help' for available commands, 'quit' to exit):")
	for {
		input, err := line.Prompt("imc> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if err := s.exec(input); err != nil {
			if errors.Is(err, errQuit) {
				fmt.Fprintln(s.out, "Goodbye!")
				return nil
			}
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
}

// exec runs one command line
func (s *shell) exec(input string) error {
	parts, err := shlex.Split(input)
	if err != nil {
		return fmt.Errorf("parse %q: %w", input, err)
	}
	if len(parts) == 0 {
		return nil
	}

	cmd, args := parts[0], parts[1:]
	switch cmd {
	case "quit", "exit", "q":
		return errQuit

	case "help", "?":
		s.printHelp()
		return nil

	case "move":
		return s.move(args)

	case "home":
		return s.home(args)

	case "poll":
		if err := s.ctrl.Poll(); err != nil {
			return err
		}
		return s.status()

	case "status":
		return s.status()

	case "report":
		level := 0
		if len(args) > 0 {
			if level, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("report level %q: %w", args[0], err)
			}
		}
		s.ctrl.Report(s.out, level)
		return nil

	case "raw":
		if len(args) == 0 {
			return errors.New("usage: raw <command>")
		}
		resp, err := s.ctrl.Raw(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%q\n", resp)
		return nil
	}

	return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
}

func (s *shell) axis(name string) (*imc.Axis, error) {
	id, err := protocol.ParseAxis(name)
	if err != nil {
		return nil, err
	}
	return s.ctrl.Axis(id)
}

func (s *shell) move(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: move <axis> <target> <velocity>")
	}
	a, err := s.axis(args[0])
	if err != nil {
		return err
	}
	target, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("target %q: %w", args[1], err)
	}
	velocity, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("velocity %q: %w", args[2], err)
	}

	if err := a.Move(target, 0, velocity, 0); err != nil {
		return err
	}
	s.wake()
	fmt.Fprintf(s.out, "Axis %v move issued\n", a.ID())
	return nil
}

func (s *shell) home(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: home <axis>")
	}
	a, err := s.axis(args[0])
	if err != nil {
		return err
	}
	if err := a.Home(0, 0, 0, false); err != nil {
		return err
	}
	s.wake()
	fmt.Fprintf(s.out, "Axis %v homing\n", a.ID())
	return nil
}

func (s *shell) wake() {
	if s.poller != nil {
		s.poller.Wake()
	}
}

func (s *shell) status() error {
	for _, a := range s.ctrl.Axes() {
		moving, pos := a.Poll()
		state := "idle"
		if moving {
			state = "moving"
		}
		fmt.Fprintf(s.out, "  %v: %.0f %s\n", a.ID(), pos, state)
	}
	return nil
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, "\nAvailable commands:")
	fmt.Fprintln(s.out, "  help                          - Show this help message")
	fmt.Fprintln(s.out, "  move <axis> <target> <vel>    - Move axis to an absolute position")
	fmt.Fprintln(s.out, "  home <axis>                   - Start a reference run")
	fmt.Fprintln(s.out, "  poll                          - Read positions now")
	fmt.Fprintln(s.out, "  status                        - Show cached axis state")
	fmt.Fprintln(s.out, "  report [level]                - Print the driver report")
	fmt.Fprintln(s.out, "  raw <command>                 - Send a raw controller command")
	fmt.Fprintln(s.out, "  quit/exit/q                   - Exit the program")
	fmt.Fprintln(s.out)
}
