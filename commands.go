package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"thermalctl/internal/config"
	"thermalctl/internal/logging"
	"thermalctl/internal/thermal/profiles"
)

type rootOptions struct {
	configPath string
	home       string
	sink       string
	property   string
	logLevel   string

	app *App
}

// Execute runs the thermalctl command line.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "thermalctl",
		Short: "Per-app thermal profiles for Android devices",
		Long: "thermalctl assigns a thermal profile (default, gaming or benchmark) to app\n" +
			"packages and keeps vendor.thermal.mode in step with the foreground app.\n" +
			"Run without a command to open the interactive menu.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(opts.app)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/thermalctl/config.toml)")
	pf.StringVar(&opts.home, "home", "", "state dir (default ~/.thermalctl)")
	pf.StringVar(&opts.sink, "sink", "", "property sink: setprop, dir or memory")
	pf.StringVar(&opts.property, "property", "", "thermal property name (default vendor.thermal.mode)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		getCmd(opts),
		setCmd(opts),
		listCmd(opts),
		profilesCmd(),
		overrideCmd(opts),
		applyCmd(opts),
		restoreCmd(opts),
		statusCmd(opts),
		watchCmd(opts),
		menuCmd(opts),
		versionCmd(),
	)
	return root
}

func (o *rootOptions) setup() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.home != "" {
		cfg.Home = o.home
	}
	if o.sink != "" {
		cfg.Sink.Kind = o.sink
	}
	if o.property != "" {
		cfg.Property = o.property
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.InitLogger(cfg.Log.Level, cfg.Log.Format)

	o.app, err = NewApp(cfg)
	return err
}

var (
	green  = color.New(color.FgHiGreen, color.Bold)
	cyan   = color.New(color.FgHiCyan)
	yellow = color.New(color.FgHiYellow)
	red    = color.New(color.FgHiRed)
)

func getCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <package>",
		Short: "Show the profile assigned to a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := opts.app.GetProfile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", args[0], info.Name, info.Mode)
			return nil
		},
	}
}

func setCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <package> <default|gaming|benchmark>",
		Short: "Assign a profile to a package",
		Long: "Assign a profile to a package. The new profile takes effect the next time\n" +
			"the package comes to the foreground.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := opts.app.SetProfile(args[0], args[1])
			if err != nil {
				return err
			}
			green.Fprintf(cmd.OutOrStdout(), "✓ %s → %s\n", args[0], info.Name)
			return nil
		},
	}
}

func listCmd(opts *rootOptions) *cobra.Command {
	var running, asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List classified packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if running {
				apps, err := opts.app.RunningApps(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(w, apps)
				}
				for _, a := range apps {
					fmt.Fprintf(w, "%-10s %-48s %s\n", a.Profile, a.Package, formatBytesHuman(int64(a.MemoryRSS)))
				}
				return nil
			}

			entries := opts.app.Classified()
			if asJSON {
				return writeJSON(w, entries)
			}
			if len(entries) == 0 {
				yellow.Fprintln(w, "No packages classified. Every app runs with the Default profile.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(w, "%-10s %s\n", e.Profile, e.Package)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&running, "running", false, "list running apps with their profile")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "Describe the available profiles",
		Args:  cobra.NoArgs,
		// The catalog is static; skip loading config and state.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, p := range profiles.AllProfiles() {
				cyan.Fprintf(w, "%-10s", p.ID)
				fmt.Fprintf(w, " %-9s %s\n", p.Mode, p.Description)
			}
			return nil
		},
	}
}

func overrideCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "override [on|off]",
		Short:     "Show or toggle the global performance override",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				if err := opts.app.SetOverride(args[0] == "on"); err != nil {
					return err
				}
			}
			if opts.app.GetOverride() {
				yellow.Fprintln(w, "Performance override: on")
			} else {
				fmt.Fprintln(w, "Performance override: off")
			}
			return nil
		},
	}
}

func applyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <package>",
		Short: "Apply the thermal mode for a package as if it came to the foreground",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := opts.app.Apply(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", opts.app.resolver.Property(), mode)
			return nil
		},
	}
}

func restoreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore the thermal property to its value before thermalctl changed it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			restored, err := opts.app.Restore()
			if err != nil {
				return err
			}
			if len(restored) == 0 {
				fmt.Fprintln(w, "Nothing to restore.")
				return nil
			}
			for _, p := range restored {
				value := p.Value
				if !p.Existed {
					value = "(unset)"
				}
				green.Fprintf(w, "✓ %s=%s\n", p.Name, value)
			}
			return nil
		},
	}
}

func statusCmd(opts *rootOptions) *cobra.Command {
	var sensors, asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the thermal mode, the override and temperatures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.app.Status(cmd.Context(), sensors)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}
	cmd.Flags().BoolVar(&sensors, "sensors", true, "read temperature sensors")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printStatus(w io.Writer, st *Status) {
	cyan.Fprintln(w, "═══ Thermal Status ═══")
	fmt.Fprintf(w, "Property:    %s=%s\n", st.Property, st.Mode)
	override := "off"
	if st.Override {
		override = "on"
	}
	fmt.Fprintf(w, "Override:    %s\n", override)
	fmt.Fprintf(w, "Classified:  %d packages\n", st.Classified)

	if st.Device != nil {
		fmt.Fprintf(w, "Device:      %s\n", st.Device.Name())
		if st.Device.SoC != "" {
			fmt.Fprintf(w, "SoC:         %s\n", st.Device.SoC)
		}
		fmt.Fprintf(w, "CPU:         %s (%dC/%dT)\n", st.Device.CPUModel, st.Device.CPUCores, st.Device.CPUThreads)
		fmt.Fprintf(w, "Uptime:      %s\n", st.Device.Uptime)
	}
	if st.Snapshot == nil {
		return
	}
	fmt.Fprintf(w, "CPU Usage:   %.1f%%\n", st.Snapshot.CPUUsage)
	fmt.Fprintf(w, "RAM Usage:   %.1f%%\n", st.Snapshot.RAMUsage)
	if hottest, ok := st.Snapshot.Hottest(); ok {
		fmt.Fprintf(w, "Hottest:     %s %.1f°C\n", hottest.Key, hottest.Temp)
	}
	for _, a := range st.Alerts {
		red.Fprintf(w, "⚠ %s\n", a.Message)
	}
}

func watchCmd(opts *rootOptions) *cobra.Command {
	var stdin bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the foreground app and keep the thermal mode in step",
		Long: "Follow the foreground app and keep the thermal mode in step. By default\n" +
			"dumpsys is polled; with --stdin one package name per line is read instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if interval <= 0 {
				interval = opts.app.cfg.Watch.Interval
			}
			var in io.Reader
			if stdin {
				in = cmd.InOrStdin()
			}
			return opts.app.Watch(ctx, in, interval)
		},
	}
	cmd.Flags().BoolVar(&stdin, "stdin", false, "read foreground package names from stdin")
	cmd.Flags().DurationVar(&interval, "interval", 0, "dumpsys polling interval (default from config)")
	return cmd
}

func menuCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Open the interactive menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(opts.app)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "thermalctl %s\n", GetVersion())
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
