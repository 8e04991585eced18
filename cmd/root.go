package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/heroes/internal/adapters/http/heroclient"
	"github.com/okian/heroes/internal/config"
	"github.com/okian/heroes/internal/domain/messages"
	"github.com/okian/heroes/internal/domain/model"
	"github.com/okian/heroes/pkg/logger"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// cli carries state shared by every subcommand.
type cli struct {
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer

	configFile string
	baseURL    string
	logLevel   string
	format     string
	jsonLogs   bool
	quiet      bool
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "heroes",
		Short: "Hero backend and search client",
		Long: `heroes serves a small hero REST backend with a search-as-you-type
websocket gateway, and doubles as a command line client for it.

Configuration is layered: defaults, then the YAML file named by --config or
HEROES_CONFIG, then HEROES_* environment variables, then flags.`,
		PersistentPreRunE: c.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "YAML config file (overrides HEROES_CONFIG)")
	root.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "backend base URL (overrides base_url)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVarP(&c.format, "format", "o", formatTable, "output format: table or json")
	root.PersistentFlags().BoolVar(&c.jsonLogs, "json-logs", false, "write logs as JSON")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "do not print client messages")

	root.AddCommand(
		c.serveCommand(),
		c.listCommand(),
		c.getCommand(),
		c.searchCommand(),
		c.addCommand(),
		c.updateCommand(),
		c.deleteCommand(),
		c.watchCommand(),
		c.seedCommand(),
	)
	return root
}

// setup initializes logging and loads configuration before any command runs.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	opts := []logger.Option{logger.WithWriter(c.errOut)}
	if c.jsonLogs {
		opts = append(opts, logger.WithJSON())
	}
	if err := logger.Init(opts...); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	if c.configFile != "" {
		if err := os.Setenv(config.EnvConfig, c.configFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	switch c.format {
	case formatTable, formatJSON:
	default:
		return fmt.Errorf("unknown format %q", c.format)
	}
	c.cfg = cfg
	return nil
}

// session is one command's client plus what it reported.
type session struct {
	client   *heroclient.Client
	messages *messages.Service

	mu       sync.Mutex
	failures []error
}

func (c *cli) newSession() (*session, error) {
	s := &session{messages: messages.New(messages.WithLimit(c.cfg.MessageLimit))}
	client, err := heroclient.New(c.cfg.BaseURL,
		heroclient.WithHeroesPath(c.cfg.HeroesPath),
		heroclient.WithTimeout(c.cfg.ClientTimeout()),
		heroclient.WithMessageLogger(s.messages),
		heroclient.WithLogger(logger.Named("heroclient")),
		heroclient.WithErrorHook(func(op string, err error) {
			s.mu.Lock()
			s.failures = append(s.failures, fmt.Errorf("%s: %w", op, err))
			s.mu.Unlock()
		}),
	)
	if err != nil {
		return nil, err
	}
	s.client = client
	return s, nil
}

// finish prints the client's messages and turns a swallowed failure into
// the command's error.
func (c *cli) finish(s *session) error {
	if !c.quiet {
		for _, m := range s.messages.Texts() {
			fmt.Fprintln(c.errOut, m)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.failures) > 0 {
		return s.failures[len(s.failures)-1]
	}
	return nil
}

func (c *cli) printHeroes(heroes []model.Hero) error {
	if c.format == formatJSON {
		return c.printJSON(heroes)
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, h := range heroes {
		fmt.Fprintf(tw, "%d\t%s\n", h.ID, h.Name)
	}
	return tw.Flush()
}

func (c *cli) printHero(h *model.Hero) error {
	if c.format == formatJSON {
		return c.printJSON(h)
	}
	return c.printHeroes([]model.Hero{*h})
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid hero id %q", arg)
	}
	return id, nil
}
