package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/sweeney/moodfuse/internal/config"
	"github.com/sweeney/moodfuse/internal/gpio"
	"github.com/sweeney/moodfuse/internal/log"
	"github.com/sweeney/moodfuse/internal/logic"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(out io.Writer, in io.Reader) *cli.App {
	app := &cli.App{
		Name:    "moodfuse",
		Usage:   "Multimodal mood companion daemon",
		Version: Version,
		Writer:  out,
		Reader:  in,
		Commands: []*cli.Command{
			runCmd(),
			scanCmd(),
			buttonsCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func configFlag() cli.Flag {
	return &cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "/etc/moodfuse/config.json", Usage: "JSON config file (missing file means defaults)"}
}

// runCmd creates the run command.
func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the daemon until SIGINT or SIGTERM",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "user", Usage: "User name for nudges and replies"},
			&cli.StringFlag{Name: "backend", Usage: "Chat backend base URL"},
			&cli.StringFlag{Name: "broker", Usage: "MQTT broker address"},
			&cli.StringFlag{Name: "topic-prefix", Usage: "MQTT topic prefix"},
			&cli.StringFlag{Name: "http", Usage: "HTTP status address (empty to disable)"},
			&cli.StringFlag{Name: "ws-broker", Usage: `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`},
			&cli.StringFlag{Name: "gpio-chip", Usage: "gpiochip device for the button panel (empty to disable)"},
			&cli.DurationFlag{Name: "heartbeat", Usage: "Heartbeat interval (0 to disable)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug|info|warn|error"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			log.Init(cfg.LogLevel)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sig)

			return newDaemon(cfg).run(sig)
		},
	}
}

// loadConfig reads the config file and applies flags the user set.
// Flags given explicitly win, including empty strings that disable a
// component.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	strs := map[string]*string{
		"user":         &cfg.UserName,
		"backend":      &cfg.BackendURL,
		"broker":       &cfg.Broker,
		"topic-prefix": &cfg.TopicPrefix,
		"http":         &cfg.HTTPAddr,
		"ws-broker":    &cfg.WSBroker,
		"gpio-chip":    &cfg.GPIOChip,
		"log-level":    &cfg.LogLevel,
	}
	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if c.IsSet("heartbeat") {
		cfg.HeartbeatMS = int(c.Duration("heartbeat").Milliseconds())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// scanCmd creates the scan command.
func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Print the crisis level of text (arguments, or one line per stdin line)",
		ArgsUsage: "[text...]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				printScan(c.App.Writer, strings.Join(c.Args().Slice(), " "))
				return nil
			}
			sc := bufio.NewScanner(c.App.Reader)
			for sc.Scan() {
				if line := strings.TrimSpace(sc.Text()); line != "" {
					printScan(c.App.Writer, line)
				}
			}
			if err := sc.Err(); err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			return nil
		},
	}
}

func printScan(w io.Writer, text string) {
	level := logic.Scan(text)
	breathing := ""
	if logic.WantsBreathing(text) {
		breathing = " breathing"
	}
	fmt.Fprintf(w, "%s%s\t%s\n", level, breathing, text)
}

// buttonsCmd creates the buttons command.
func buttonsCmd() *cli.Command {
	return &cli.Command{
		Name:  "buttons",
		Usage: "Print the current button panel state and exit",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "gpio-chip", Usage: "gpiochip device (default from config, else " + gpio.DefaultChip + ")"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			chip := cfg.GPIOChip
			if c.IsSet("gpio-chip") {
				chip = c.String("gpio-chip")
			}
			if chip == "" {
				chip = gpio.DefaultChip
			}

			r, err := gpio.NewRealReader(chip, cfg.GPIOPins)
			if err != nil {
				return fmt.Errorf("init gpio: %w", err)
			}
			defer r.Close()

			b, err := r.Read()
			if err != nil {
				return fmt.Errorf("read gpio: %w", err)
			}
			fmt.Fprintln(c.App.Writer, gpio.StateString(b))
			return nil
		},
	}
}
