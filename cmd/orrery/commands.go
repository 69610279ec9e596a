package main

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/oxygene76/orrery/internal/types"
	"github.com/oxygene76/orrery/pkg/analysis"
	"github.com/oxygene76/orrery/pkg/astronomy/orbital"
	"github.com/oxygene76/orrery/pkg/client"
	"github.com/oxygene76/orrery/pkg/ephemeris"
	"github.com/oxygene76/orrery/pkg/render"
	"github.com/oxygene76/orrery/pkg/scene"
	"github.com/oxygene76/orrery/pkg/server"
	"github.com/oxygene76/orrery/pkg/tui"
	"github.com/oxygene76/orrery/pkg/utils"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			start, _ := cmd.Flags().GetString("start")
			stop, _ := cmd.Flags().GetString("stop")
			force, _ := cmd.Flags().GetBool("force")

			path := cfgFile
			if path == "" {
				p, err := utils.GetConfigPath()
				if err != nil {
					return fmt.Errorf("failed to resolve config path: %w", err)
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
			}

			config := utils.DefaultConfig()
			config.Ephemeris.Source = source
			config.Ephemeris.Start = start
			config.Ephemeris.Stop = stop

			if err := utils.SaveConfig(config, path); err != nil {
				return err
			}
			fmt.Printf("Configuration saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().String("source", utils.SourceHorizons, "ephemeris source: horizons, kepler or cache")
	cmd.Flags().String("start", "2024-01-01", "ephemeris start date")
	cmd.Flags().String("stop", "2026-01-01", "ephemeris stop date")
	cmd.Flags().Bool("force", false, "overwrite an existing config")

	return cmd
}

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download ephemeris data into the cache file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			app, config, err := newApp(cmd)
			if err != nil {
				return err
			}
			if config.Ephemeris.Source == utils.SourceCache {
				return fmt.Errorf("fetch needs a source other than cache")
			}
			if config.Ephemeris.CacheFile == "" {
				return fmt.Errorf("no cache_file configured")
			}
			// force a refetch
			if err := os.Remove(config.Ephemeris.CacheFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove old cache: %w", err)
			}

			if err := app.LoadEphemeris(ctx); err != nil {
				return err
			}
			printBodies(app.Bodies())
			return nil
		},
	}

	cmd.Flags().String("source", "", "override the configured ephemeris source")
	return cmd
}

func viewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Run the interactive terminal viewer",
		Long: `Run the orrery in a truecolor terminal.

Keys: space start/stop, c clear trails, o orbits, +/- zoom, arrows pan,
[ ] view angle, , . rotation, < > time step, r reverse, tab cycle center,
l cycle light body, e/E jump to the solar/lunar eclipse preset, q quit.
Mouse: left drag pans, right drag tilts, wheel zooms, click centers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logFile, _ := cmd.Flags().GetString("log")
			serve, _ := cmd.Flags().GetBool("serve")
			run, _ := cmd.Flags().GetBool("run")

			// the terminal belongs to the viewer
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer f.Close()
				log.SetOutput(f)
			} else {
				log.SetOutput(io.Discard)
			}

			ctx, cancel := signalContext()
			defer cancel()

			app, config, err := newApp(cmd)
			if err != nil {
				return err
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("failed to create screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("failed to initialize screen: %w", err)
			}
			defer screen.Fini()

			viewer := tui.NewViewer(screen, app.Catalog())
			app.Subscribe(func(f render.Frame) { viewer.Show(f, app.StatusLine()) })

			if serve {
				srv := server.New(config.Server, app, nil, app.Metrics())
				app.Subscribe(srv.Publish)
				go func() {
					if err := srv.Start(ctx); err != nil {
						viewer.Notify(err.Error())
					}
				}()
			}

			go func() {
				if err := app.LoadEphemeris(ctx); err != nil {
					viewer.Notify(err.Error())
					return
				}
				if run {
					app.Scheduler().Start()
				}
			}()
			go func() {
				if err := app.Run(ctx); err != nil {
					log.Printf("Warning: frame loop stopped: %v", err)
				}
			}()

			err = viewer.Run(ctx, app.Scheduler())
			cancel()
			return err
		},
	}

	cmd.Flags().String("source", "", "override the configured ephemeris source")
	cmd.Flags().String("log", "", "write log output to this file")
	cmd.Flags().Bool("serve", false, "also serve the HTTP API")
	cmd.Flags().Bool("run", false, "start advancing time once loaded")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve frames, controls, metrics and the Horizons proxy over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			static, _ := cmd.Flags().GetString("static")
			proxyOnly, _ := cmd.Flags().GetBool("proxy-only")
			run, _ := cmd.Flags().GetBool("run")

			ctx, cancel := signalContext()
			defer cancel()

			app, config, err := newApp(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				config.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				config.Server.Port = port
			}
			if static != "" {
				config.Server.StaticDir = static
			}

			upstream := ephemeris.NewHorizonsClient(config.HorizonsConfig())
			if proxyOnly {
				return server.New(config.Server, nil, upstream, app.Metrics()).Start(ctx)
			}

			if err := app.LoadEphemeris(ctx); err != nil {
				return err
			}
			if run {
				app.Scheduler().Start()
			}

			srv := server.New(config.Server, app, upstream, app.Metrics())
			app.Subscribe(srv.Publish)

			go func() {
				if err := app.Run(ctx); err != nil {
					log.Printf("Warning: frame loop stopped: %v", err)
				}
			}()
			return srv.Start(ctx)
		},
	}

	cmd.Flags().String("source", "", "override the configured ephemeris source")
	cmd.Flags().String("host", "127.0.0.1", "listen host")
	cmd.Flags().Int("port", 8000, "listen port")
	cmd.Flags().String("static", "", "directory of static files to serve at /")
	cmd.Flags().Bool("proxy-only", false, "only run the caching Horizons proxy")
	cmd.Flags().Bool("run", false, "start advancing time immediately")
	return cmd
}

func recordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Render a frame sequence to a JSONL file",
		RunE: func(cmd *cobra.Command, args []string) error {
			frames, _ := cmd.Flags().GetInt("frames")
			output, _ := cmd.Flags().GetString("output")
			step, _ := cmd.Flags().GetFloat64("step")
			center, _ := cmd.Flags().GetString("center")
			orbits, _ := cmd.Flags().GetBool("orbits")

			if frames <= 0 {
				return fmt.Errorf("frames must be positive")
			}

			ctx, cancel := signalContext()
			defer cancel()

			app, _, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.LoadEphemeris(ctx); err != nil {
				return err
			}

			commands := []scene.Command{{Action: "orbits", On: orbits}}
			if step != 0 {
				commands = append(commands, scene.Command{Action: "time_step", Value: step})
			}
			if cmd.Flags().Changed("center") {
				commands = append(commands, scene.Command{Action: "center", Target: center})
			}
			for _, c := range commands {
				if _, err := app.Apply(c); err != nil {
					return err
				}
			}

			return app.Record(output, frames)
		},
	}

	cmd.Flags().Int("frames", 100, "number of frames")
	cmd.Flags().String("output", "frames.jsonl", "output file")
	cmd.Flags().Float64("step", 0, "days between frames (default from config)")
	cmd.Flags().String("center", "", "body id to center on (empty for the Sun)")
	cmd.Flags().Bool("orbits", false, "draw orbit paths")
	cmd.Flags().String("source", "", "override the configured ephemeris source")
	return cmd
}

func eclipsesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eclipses",
		Short: "Scan the ephemeris for lunar and solar eclipses",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			fromFlag, _ := cmd.Flags().GetString("from")
			toFlag, _ := cmd.Flags().GetString("to")
			steps, _ := cmd.Flags().GetInt("steps")
			tolerance, _ := cmd.Flags().GetFloat64("tolerance")
			output, _ := cmd.Flags().GetString("output")

			ctx, cancel := signalContext()
			defer cancel()

			app, config, err := newApp(cmd)
			if err != nil {
				return err
			}

			from, to, err := config.Range()
			if err != nil {
				return err
			}
			if fromFlag != "" {
				if from, err = utils.ParseDate(fromFlag); err != nil {
					return err
				}
			}
			if toFlag != "" {
				if to, err = utils.ParseDate(toFlag); err != nil {
					return err
				}
			}

			if err := app.LoadEphemeris(ctx); err != nil {
				return err
			}

			kinds := []string{types.LunarEclipse, types.SolarEclipse}
			if kind != "both" {
				kinds = []string{kind}
			}

			for _, k := range kinds {
				result, err := app.Eclipses(k, from, to, steps, tolerance)
				if err != nil {
					return err
				}
				printEclipses(result)

				if output != "" {
					path := output
					if len(kinds) > 1 {
						path = fmt.Sprintf("%s.%s.json", output, k)
					}
					if err := client.SaveResult(result, path); err != nil {
						return fmt.Errorf("failed to save results locally: %w", err)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().String("kind", "both", "lunar, solar or both")
	cmd.Flags().String("from", "", "scan start (default: ephemeris start)")
	cmd.Flags().String("to", "", "scan end (default: ephemeris stop)")
	cmd.Flags().Int("steps", analysis.DefaultSteps, "number of scan steps")
	cmd.Flags().Float64("tolerance", analysis.DefaultTolerance, "angular tolerance in degrees")
	cmd.Flags().String("output", "", "write the report as JSON")
	cmd.Flags().String("source", "", "override the configured ephemeris source")
	return cmd
}

func bodiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bodies",
		Short: "List bodies with loaded samples and osculating elements",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			app, _, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.LoadEphemeris(ctx); err != nil {
				return err
			}

			printBodies(app.Bodies())
			fmt.Println()
			printElements(app)
			return nil
		},
	}

	cmd.Flags().String("source", "", "override the configured ephemeris source")
	return cmd
}

func printBodies(bodies []types.BodyInfo) {
	fmt.Printf("=== Bodies (%d) ===\n", len(bodies))
	fmt.Printf("%-6s %-12s %-8s %-14s %-6s %8s  %s\n", "ID", "NAME", "COLOR", "GROUP", "MODE", "SAMPLES", "RANGE")
	for _, b := range bodies {
		span := "-"
		if b.Samples > 0 {
			span = fmt.Sprintf("%s .. %s", b.Start.Format("2006-01-02"), b.End.Format("2006-01-02"))
		}
		fmt.Printf("%-6s %-12s %-8s %-14s %-6s %8d  %s\n", b.ID, b.Name, b.Color, b.Group, b.Mode, b.Samples, span)
	}
}

// printElements shows osculating elements at the middle sample. Moons
// are reduced to their parent's frame first.
func printElements(app *client.App) {
	fmt.Println("=== Osculating elements ===")
	fmt.Printf("%-12s %10s %8s %8s %10s\n", "NAME", "A (AU)", "E", "I (deg)", "P (days)")

	for _, b := range app.Catalog().Bodies() {
		series, ok := app.Store().Get(b.ID)
		if !ok || series.Len() < 3 {
			continue
		}
		mu := orbital.GMSun
		if b.Parent != "" {
			parent, ok := app.Store().Get(b.Parent)
			if !ok {
				continue
			}
			rel, ok := relativeSeries(series, parent)
			if !ok {
				continue
			}
			series, mu = rel, orbital.GMEarthMoon
		}

		el, ok := orbital.Osculating(series, series.Len()/2, mu)
		if !ok {
			continue
		}
		fmt.Printf("%-12s %10.6f %8.5f %8.3f %10.3f\n", b.Name, el.SemiMajorAxis, el.Eccentricity,
			el.Inclination*180/math.Pi, el.GetOrbitalPeriod(mu))
	}
}

// relativeSeries subtracts parent positions sampled at the same times
func relativeSeries(s, parent ephemeris.Series) (ephemeris.Series, bool) {
	at := make(map[time.Time]int, parent.Len())
	for i, p := range parent.Samples {
		at[p.Time] = i
	}
	out := ephemeris.Series{MeanRadiusAU: s.MeanRadiusAU}
	for _, smp := range s.Samples {
		i, ok := at[smp.Time]
		if !ok {
			continue
		}
		out.Samples = append(out.Samples, ephemeris.Sample{Time: smp.Time, Position: smp.Position.Sub(parent.Samples[i].Position)})
	}
	return out, out.Len() >= 3
}

func printEclipses(result *types.AnalysisResult) {
	report, ok := result.Results.(*types.EclipseReport)
	if !ok {
		return
	}

	fmt.Printf("=== %s eclipses %s .. %s ===\n", report.Kind, report.From.Format("2006-01-02"), report.To.Format("2006-01-02"))
	fmt.Printf("Scanned %d steps at %.2f° tolerance: %d candidates, %d undefined\n",
		report.Steps, report.Tolerance, report.Candidates, report.Undefined)

	events := append([]types.EclipseEvent(nil), report.Events...)
	sort.Slice(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })
	for i, ev := range events {
		fmt.Printf("%3d. %s  separation %.3f°  latitude %.3f°  (%d samples)\n",
			i+1, ev.Time.Format("2006-01-02 15:04"), ev.Separation, ev.Latitude, ev.Samples)
	}
	if len(events) > 1 {
		fmt.Printf("Mean separation %.3f° ± %.3f°, mean latitude %.3f° ± %.3f°\n",
			report.MeanSeparation, report.StdSeparation, report.MeanLatitude, report.StdLatitude)
	}
	fmt.Printf("Completed in %s\n", result.Duration.Round(time.Millisecond))
}
