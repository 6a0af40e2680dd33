package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long: `Display the effective configuration and which files and variables it was
loaded from. Credentials are masked.`,
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execPrintConfig(o, a)
		},
	}
}

func execPrintConfig(o *IO, a *app) error {
	cfg := a.cfg

	o.Println("effective_cwd=" + cfg.EffectiveCwd)
	o.Println("host=" + cfg.Host)
	o.Println("key=" + mask(cfg.Key))
	o.Println("token=" + mask(cfg.Token))
	o.Println("editor=" + cfg.ResolveEditor(a.env))
	o.Println("poll_interval=" + cfg.Interval.String())

	o.Println("")
	o.Println("# sources")

	src := cfg.Sources
	if src.Global == "" && src.File == "" && src.DotEnv == "" && len(src.Env) == 0 {
		o.Println("(defaults only)")

		return nil
	}

	if src.Global != "" {
		o.Println("global_config=" + src.Global)
	}

	if src.File != "" {
		o.Println("config_file=" + src.File)
	}

	if src.DotEnv != "" {
		o.Println("dotenv=" + src.DotEnv)
	}

	if len(src.Env) > 0 {
		o.Println("env=" + strings.Join(src.Env, ","))
	}

	return nil
}

// mask hides all but the last four characters of a secret.
func mask(secret string) string {
	if secret == "" {
		return "(unset)"
	}

	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}

	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
