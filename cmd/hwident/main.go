package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ExclusiveAccount/hwident/pkg/api"
	"github.com/ExclusiveAccount/hwident/pkg/config"
	"github.com/ExclusiveAccount/hwident/pkg/fingerprint"
	"github.com/ExclusiveAccount/hwident/pkg/hwinfo"
	"github.com/ExclusiveAccount/hwident/pkg/report"
	"github.com/ExclusiveAccount/hwident/pkg/smbios"
	"github.com/ExclusiveAccount/hwident/pkg/vmdetect"
)

const (
	appName    = "hwident"
	appVersion = "1.0.0"
)

var (
	log = logrus.New()
	cfg = config.DefaultConfig()
)

func main() {
	app := &cli.App{
		Name:    appName,
		Usage:   "Hardware fingerprinting and VM detection",
		Version: appVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"HWIDENT_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			if path := c.String("config"); path != "" {
				loaded, err := config.LoadConfigFromFile(path)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}

			logLevel := c.String("log-level")
			if !c.IsSet("log-level") && cfg.LogLevel != "" {
				logLevel = cfg.LogLevel
			}
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				level = logrus.InfoLevel
			}
			log.SetLevel(level)
			log.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: "2006-01-02 15:04:05",
			})
			return nil
		},
		Commands: []*cli.Command{
			commandSnapshot(),
			commandHash(),
			commandAnalyze(),
			commandReport(),
			commandSMBIOS(),
			commandServe(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func printBanner() {
	color.Cyan("\n=== Hardware Identity Scanner ===\n")
}

// capture takes the extended snapshot through the default probe, logging
// through the CLI logger.
func capture() (*hwinfo.MotherboardEx, error) {
	probe := hwinfo.NewSystemProbe(log)
	snap, err := hwinfo.SnapExWith(probe)
	if err != nil {
		return nil, fmt.Errorf("capture hardware snapshot: %w", err)
	}
	return snap, nil
}

func commandSnapshot() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Aliases: []string{"snap"},
		Usage:   "Capture the hardware snapshot and print a report",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Print the snapshot as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			snap, err := capture()
			if err != nil {
				return err
			}

			if c.Bool("json") || cfg.Format == "json" {
				return printJSON(snap)
			}

			printBanner()
			fpr := fingerprint.HashEx(snap)
			verdict := vmdetect.AnalyzeEx(snap)
			return report.WriteText(os.Stdout, snap, fpr, verdict)
		},
	}
}

func commandHash() *cli.Command {
	return &cli.Command{
		Name:    "hash",
		Aliases: []string{"h"},
		Usage:   "Print the hardware fingerprint",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "base",
				Usage: "Hash only the CPU and firmware identity, without drives",
			},
		},
		Action: func(c *cli.Context) error {
			snap, err := capture()
			if err != nil {
				return err
			}

			if c.Bool("base") {
				return report.WriteHash(os.Stdout, fingerprint.Hash(&snap.Motherboard))
			}
			return report.WriteHash(os.Stdout, fingerprint.HashEx(snap))
		},
	}
}

func commandAnalyze() *cli.Command {
	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"a"},
		Usage:   "Run the VM detection heuristics",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Print the verdict as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			snap, err := capture()
			if err != nil {
				return err
			}
			verdict := vmdetect.AnalyzeEx(snap)

			if c.Bool("json") {
				return printJSON(verdict)
			}

			printBanner()
			policy := vmdetect.DefaultPolicy{}
			if len(verdict.Detections) == 0 {
				fmt.Println("No VM indicators detected")
			}
			for _, f := range verdict.Detections {
				fmt.Printf("  %s [%s]\n", f, policy.Strength(f))
			}
			printConfidence(verdict.Confidence)
			return nil
		},
	}
}

// printConfidence colors the aggregated confidence the way the severity of
// the verdict reads.
func printConfidence(confidence vmdetect.Confidence) {
	switch confidence {
	case vmdetect.DefinitelyVM:
		color.Red("Confidence: %s", confidence)
	case vmdetect.Probable:
		color.Yellow("Confidence: %s", confidence)
	case vmdetect.Possible:
		color.Cyan("Confidence: %s", confidence)
	default:
		color.Green("Confidence: %s", confidence)
	}
}

func commandReport() *cli.Command {
	return &cli.Command{
		Name:    "report",
		Aliases: []string{"r"},
		Usage:   "Write text, binary and hash reports to a directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   "reports",
				Usage:   "Directory to write the report files into",
			},
		},
		Action: func(c *cli.Context) error {
			snap, err := capture()
			if err != nil {
				return err
			}
			fpr := fingerprint.HashEx(snap)
			verdict := vmdetect.AnalyzeEx(snap)

			dir := c.String("dir")
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create report directory: %w", err)
			}

			if err := report.SaveText(filepath.Join(dir, "hwident.txt"), snap, fpr, verdict); err != nil {
				return err
			}
			if err := report.SaveBinary(filepath.Join(dir, "hwident.bin"), snap); err != nil {
				return err
			}
			if err := report.SaveHash(filepath.Join(dir, "hwident.hash"), fpr); err != nil {
				return err
			}

			color.Green("Reports written to %s", dir)
			return nil
		},
	}
}

func commandSMBIOS() *cli.Command {
	return &cli.Command{
		Name:  "smbios",
		Usage: "Dump the SMBIOS structure table",
		Action: func(c *cli.Context) error {
			probe := hwinfo.NewSystemProbe(log)
			blob, err := probe.SMBIOS()
			if err != nil {
				return fmt.Errorf("capture smbios: %w", err)
			}

			fmt.Printf("SMBIOS %d.%d (DMI rev %d), table %d bytes\n",
				blob.Major, blob.Minor, blob.Revision, len(blob.Data))

			smbios.Walk(blob.Data, func(s smbios.Structure) bool {
				fmt.Printf("Handle 0x%04X, type %d, %d bytes\n", s.Handle, s.Type, s.Length)
				for i, str := range s.Strings {
					fmt.Printf("  String %d: %s\n", i+1, str)
				}
				return true
			})
			return nil
		},
	}
}

func commandServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the diagnostic HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			if port := c.String("port"); port != "" {
				cfg.ServePort = port
			}
			server := api.NewServer(cfg, log)
			return server.Start()
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	if cfg.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
