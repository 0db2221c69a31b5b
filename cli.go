package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"

	"thermalctl/internal/config"
	"thermalctl/internal/system"
	"thermalctl/internal/thermal"
	"thermalctl/internal/thermal/profiles"
)

func runMenu(a *App) error {
	green.Println("\n  ▀█▀ █ █ █▀▀ █▀█ █▀▄▀█ ▄▀█ █   █▀▀ ▀█▀ █  ")
	green.Println("   █  █▀█ ██▄ █▀▄ █ ▀ █ █▀█ █▄▄ █▄▄  █  █▄▄")
	fmt.Println()
	cyan.Printf("  Per-app thermal profiles v%s\n", GetVersion())
	fmt.Println("  ─────────────────────────────────────────────")
	fmt.Println()

	if a.cfg.Sink.Kind == config.SinkSetprop && !system.IsPrivileged() {
		red.Println("  ⚠ Writing vendor properties requires root.")
		red.Println("  Run thermalctl as root, or use --sink dir to try it out.")
		fmt.Println()
	}

	for {
		override := "OFF"
		if a.GetOverride() {
			override = "ON"
		}

		prompt := promptui.Select{
			Label: "What would you like to do?",
			Items: []string{
				"📱 Running Apps",
				"✏️  Set Profile by Package",
				"📋 Classified Apps",
				"🔥 Performance Override: " + override,
				"🌡️  Thermal Status",
				"♻️  Restore Original Mode",
				"❌ Exit",
			},
			Size: 7,
		}

		i, _, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		fmt.Println()

		switch i {
		case 0:
			cliRunningApps(a)
		case 1:
			cliSetByPackage(a)
		case 2:
			cliClassified(a)
		case 3:
			cliToggleOverride(a)
		case 4:
			cliStatus(a)
		case 5:
			cliRestore(a)
		case 6:
			green.Println("  Bye! 🔥")
			return nil
		}
		fmt.Println()
	}
}

func cliRunningApps(a *App) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	yellow.Println("  Scanning running apps...")
	running, err := a.RunningApps(ctx)
	if err != nil {
		red.Printf("  Error: %v\n", err)
		return
	}
	if len(running) == 0 {
		yellow.Println("  No app processes found.")
		return
	}

	items := make([]string, len(running)+1)
	for i, r := range running {
		items[i] = fmt.Sprintf("[%s] %s - %s", r.Profile.Info().Name, r.Package, formatBytesHuman(int64(r.MemoryRSS)))
	}
	items[len(running)] = "Back"

	prompt := promptui.Select{
		Label: "Select App",
		Items: items,
		Size:  10,
	}
	i, _, err := prompt.Run()
	if err != nil || i == len(running) {
		return
	}
	cliChooseProfile(a, running[i].Package, running[i].Profile)
}

func cliSetByPackage(a *App) {
	prompt := promptui.Prompt{
		Label:    "Package name",
		Validate: thermal.ValidatePackage,
	}
	pkg, err := prompt.Run()
	if err != nil {
		return
	}
	current, err := a.GetProfile(pkg)
	if err != nil {
		red.Printf("  Error: %v\n", err)
		return
	}
	cliChooseProfile(a, pkg, current.Profile)
}

func cliChooseProfile(a *App, pkg string, current profiles.Profile) {
	all := a.ListProfiles()
	items := make([]string, len(all))
	cursor := 0
	for i, p := range all {
		items[i] = fmt.Sprintf("%s - %s", p.Name, p.Description)
		if p.Profile == current {
			cursor = i
		}
	}

	prompt := promptui.Select{
		Label:     "Profile for " + pkg,
		Items:     items,
		Size:      len(items),
		CursorPos: cursor,
	}
	i, _, err := prompt.Run()
	if err != nil {
		return
	}

	info, err := a.SetProfile(pkg, all[i].ID)
	if err != nil {
		red.Printf("  Error: %v\n", err)
		return
	}
	green.Printf("  ✓ %s → %s\n", pkg, info.Name)
}

func cliClassified(a *App) {
	entries := a.Classified()
	if len(entries) == 0 {
		green.Println("  No apps classified. Everything runs with the Default profile.")
		return
	}
	cyan.Println("  ═══ Classified Apps ═══")
	for _, e := range entries {
		fmt.Printf("  %-10s %s\n", e.Profile.Info().Name, e.Package)
	}
}

func cliToggleOverride(a *App) {
	enable := !a.GetOverride()
	if err := a.SetOverride(enable); err != nil {
		red.Printf("  Error: %v\n", err)
		return
	}
	if enable {
		yellow.Println("  ✓ Performance override enabled. All apps now run with game-perf.")
	} else {
		green.Println("  ✓ Performance override disabled.")
	}
}

func cliStatus(a *App) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := a.Status(ctx, true)
	if err != nil {
		color.Red("  Error: %v", err)
		return
	}
	printStatus(color.Output, st)
}

func cliRestore(a *App) {
	prompt := promptui.Prompt{
		Label:     "Restore the thermal property to its original value",
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		return
	}

	restored, err := a.Restore()
	if err != nil {
		red.Printf("  Error: %v\n", err)
		return
	}
	if len(restored) == 0 {
		green.Println("  Nothing to restore.")
		return
	}
	for _, p := range restored {
		green.Printf("  ✓ %s restored\n", p.Name)
	}
}

func formatBytesHuman(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	b := float64(bytes)
	i := 0
	for b >= 1024 && i < len(units)-1 {
		b /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", b, units[i])
}
