package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samvad-hq/samvad-board-client/internal/config"
	"github.com/samvad-hq/samvad-board-client/internal/logger"
	"github.com/samvad-hq/samvad-board-client/pkg/api"
	"github.com/samvad-hq/samvad-board-client/pkg/boards"
	"github.com/samvad-hq/samvad-board-client/pkg/httpclient"
	"github.com/spf13/cobra"
)

func main() {
	err := newRootCmd(os.Stdout).Execute()
	_ = logger.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli holds the flag values and the lazily built API client.
type cli struct {
	out       io.Writer
	baseURL   string
	apiKey    string
	token     string
	timeout   time.Duration
	logLevel  string
	httpCache bool
	board     string

	client *api.Client
	log    logger.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:           "boardctl",
		Short:         "Command line client for the board API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.baseURL, "base-url", "u", "", "Board API base URL (default from API_BASE_URL)")
	flags.StringVar(&c.apiKey, "api-key", "", "API key sent as X-API-Key (default from API_KEY)")
	flags.StringVar(&c.token, "token", "", "Bearer token (default from API_TOKEN)")
	flags.DurationVar(&c.timeout, "timeout", 0, "Request timeout (default from HTTP_TIMEOUT_SECONDS)")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level for stderr logs (default from LOG_LEVEL)")
	flags.BoolVar(&c.httpCache, "http-cache", false, "Honour HTTP caching headers")
	flags.StringVarP(&c.board, "board", "b", "", "Use a board from BOARDS_FILE instead of the API_* settings")

	root.AddCommand(
		c.eventsCmd(),
		c.voteCmd(),
		c.voteStatusCmd(),
		c.feedbackCmd(),
		c.settingsCmd(),
		c.themeCmd(),
		c.newsletterCmd(),
		c.footerLinksCmd(),
		c.tagsCmd(),
	)
	return root
}

// setup merges flags over the environment config and builds the client.
func (c *cli) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	cfg, err := config.Load(func(cfg *config.Config) {
		if flags.Changed("base-url") {
			cfg.APIBaseURL = c.baseURL
		}
		if flags.Changed("api-key") {
			cfg.APIKey = c.apiKey
		}
		if flags.Changed("token") {
			cfg.APIToken = c.token
		}
		if flags.Changed("timeout") && c.timeout > 0 {
			cfg.HTTPTimeout = c.timeout
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = c.logLevel
		}
		if flags.Changed("http-cache") {
			cfg.HTTPCacheEnabled = c.httpCache
		}
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.InitStderr(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	env := api.StaticEnvironment{
		BaseURL: cfg.APIBaseURL,
		APIKey:  cfg.APIKey,
		Token:   cfg.APIToken,
	}
	if c.board != "" {
		env, err = boardEnvironment(cfg.BoardsFile, c.board)
		if err != nil {
			return err
		}
	}
	transport := httpclient.NewRestyClient(httpclient.Options{
		Timeout: cfg.HTTPTimeout,
		Cache:   cfg.HTTPCacheEnabled,
	})
	c.log = log
	c.client, err = api.NewClient(env, api.WithHTTPClient(transport), api.WithLogger(log))
	return err
}

func boardEnvironment(path, id string) (api.StaticEnvironment, error) {
	reg, err := boards.LoadRegistry(path)
	if err != nil {
		return api.StaticEnvironment{}, fmt.Errorf("load boards: %w", err)
	}
	board, ok := reg.ByID(id)
	if !ok {
		return api.StaticEnvironment{}, fmt.Errorf("board %q not found in %s", id, path)
	}
	return board.Environment(), nil
}
