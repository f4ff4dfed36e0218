package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	adminUser   string
	adminPass   string
	bind        string
	media       string
	port        int
	prefix      string
	profile     bool
	questions   string
	revealDelay time.Duration
	tlsCert     string
	tlsKey      string
	verbose     bool
	version     bool
	vip         bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.adminUser == "" || c.adminPass == "" {
		return errors.New("both --admin-user and --admin-pass must be non-empty")
	}
	if c.revealDelay <= 0 {
		return fmt.Errorf("invalid reveal delay (must be positive): %s", c.revealDelay)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MUSICGAME")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "music-game",
		Short:         "A shared live music trivia session, one host console and many players.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.adminUser, "admin-user", "admin", "username for the host console (env: MUSICGAME_ADMIN_USER)")
	fs.StringVar(&cfg.adminPass, "admin-pass", "password", "password for the host console (env: MUSICGAME_ADMIN_PASS)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: MUSICGAME_BIND)")
	fs.StringVar(&cfg.media, "media", "media", "directory of audio assets served under /media (env: MUSICGAME_MEDIA)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: MUSICGAME_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: MUSICGAME_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: MUSICGAME_PROFILE)")
	fs.StringVar(&cfg.questions, "questions", "questions.json", "path to the question bank (env: MUSICGAME_QUESTIONS)")
	fs.DurationVar(&cfg.revealDelay, "reveal-delay", 3*time.Second, "countdown before answers are revealed once everyone has answered (env: MUSICGAME_REVEAL_DELAY)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: MUSICGAME_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: MUSICGAME_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: MUSICGAME_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: MUSICGAME_VERSION)")
	fs.BoolVar(&cfg.vip, "vip", false, "let the first joined player advance questions (env: MUSICGAME_VIP)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("music-game v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
