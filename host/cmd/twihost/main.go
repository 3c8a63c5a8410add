// Command twihost is an interactive console for a device bridging its
// I2C bus over a serial link.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/shlex"

	"avrhal/host/bridge"
	"avrhal/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	verbose = flag.Bool("verbose", false, "Enable protocol debug logging")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := bridge.New(port, log)
	fmt.Printf("Connected to %s\n", *device)
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" || args[0] == "q" {
			return
		}
		if err := run(client, args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

// parseByte accepts decimal or 0x-prefixed hex.
func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	return uint8(v), err
}

func parseBytes(args []string) ([]byte, error) {
	out := make([]byte, 0, len(args))
	for _, a := range args {
		b, err := parseByte(a)
		if err != nil {
			return nil, fmt.Errorf("bad byte %q: %w", a, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func run(client *bridge.Client, args []string) error {
	switch args[0] {
	case "help":
		fmt.Println(`Commands:
  scan                         probe the bus for devices
  write <addr> <reg> [data..]  write bytes to a register
  read <addr> <n>              read n bytes
  readreg <addr> <reg> <n>     write register address, read n bytes
  reset                        restart the remote bus engine
  quit                         exit`)
		return nil

	case "scan":
		found, err := client.Scan()
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Println("no devices found")
			return nil
		}
		for _, a := range found {
			fmt.Printf("device at %#02x\n", a)
		}
		return nil

	case "write":
		if len(args) < 3 {
			return fmt.Errorf("usage: write <addr> <reg> [data..]")
		}
		b, err := parseBytes(args[1:])
		if err != nil {
			return err
		}
		return client.WriteReg(b[0], b[1], b[2:]...)

	case "read":
		if len(args) != 3 {
			return fmt.Errorf("usage: read <addr> <n>")
		}
		b, err := parseBytes(args[1:])
		if err != nil {
			return err
		}
		data, err := client.Read(b[0], b[1])
		if err != nil {
			return err
		}
		fmt.Printf("% 02x\n", data)
		return nil

	case "readreg":
		if len(args) != 4 {
			return fmt.Errorf("usage: readreg <addr> <reg> <n>")
		}
		b, err := parseBytes(args[1:])
		if err != nil {
			return err
		}
		data, err := client.ReadReg(b[0], b[1], b[2])
		if err != nil {
			return err
		}
		fmt.Printf("% 02x\n", data)
		return nil

	case "reset":
		return client.ResetBus()
	}
	return fmt.Errorf("unknown command %q, try 'help'", args[0])
}
