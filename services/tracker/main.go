package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/iulianpascalau/bench-tracker/commonGo"
	"github.com/iulianpascalau/bench-tracker/services/tracker/config"
	"github.com/iulianpascalau/bench-tracker/services/tracker/factory"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/urfave/cli"
)

const (
	logFilePrefix        = "tracker"
	logFileLifeSpanInSec = 86400 // 24h
	logFileLifeSpanInMB  = 1024  // 1GB
	envServiceKey        = "SERVICE_KEY"
)

// appVersion should be populated at build time using ldflags
// Usage examples:
// Linux/macOS:
//
//	go build -v -ldflags="-X main.appVersion=$(git describe --all | cut -c7-32)
var appVersion = "undefined"
var fileLogging commonGo.FileLoggingHandler

var (
	trackerHelpTemplate = `NAME:
   {{.Name}} - {{.Usage}}
USAGE:
   {{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}
   {{if len .Authors}}
AUTHOR:
   {{range .Authors}}{{ . }}{{end}}
   {{end}}{{if .Commands}}
GLOBAL OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}
VERSION:
   {{.Version}}
   {{end}}
`

	log = logger.GetOrCreate("tracker")

	// logLevel defines the logger level
	logLevel = cli.StringFlag{
		Name: "log-level",
		Usage: "This flag specifies the logger `level(s)`. It can contain multiple comma-separated value. For example" +
			", if set to *:INFO the logs for all packages will have the INFO level. However, if set to *:INFO,api:DEBUG" +
			" the logs for all packages will have the INFO level, excepting the api package which will receive a DEBUG" +
			" log level.",
		Value: "*:" + logger.LogInfo.String(),
	}
	// logFile is used when the log output needs to be logged in a file
	logSaveFile = cli.BoolFlag{
		Name:  "log-save",
		Usage: "Boolean option for enabling log saving. If set, it will automatically save all the logs into a file.",
	}
	// workingDirectory defines a flag for the path for the working directory.
	workingDirectory = cli.StringFlag{
		Name:  "working-directory",
		Usage: "This flag specifies the `directory` where the tracker will store databases and logs.",
		Value: "",
	}
	// configFile defines the path of the TOML configuration file
	configFile = cli.StringFlag{
		Name:  "config",
		Usage: "The `filepath` for the tracker TOML configuration file.",
		Value: "./config.toml",
	}
	// envFile defines the path of the file holding the secrets
	envFile = cli.StringFlag{
		Name:  "env-file",
		Usage: "The `filepath` for the .env file holding the " + envServiceKey + " variable.",
		Value: "./.env",
	}
	// importFile seeds the history from a legacy data.js document
	importFile = cli.StringFlag{
		Name:  "import",
		Usage: "Optional `filepath` of a data.js document whose runs are appended to the history at startup.",
		Value: "",
	}

	envFileContents = map[string]string{
		envServiceKey: "",
	}
)

func main() {
	app := cli.NewApp()
	cli.AppHelpTemplate = trackerHelpTemplate
	app.Name = "Benchmark history tracker"
	app.Version = fmt.Sprintf("%s/%s/%s-%s", appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	app.Usage = "This is the entry point for starting the service that stores benchmark runs and flags regressions"
	app.Flags = []cli.Flag{
		logLevel,
		logSaveFile,
		workingDirectory,
		configFile,
		envFile,
		importFile,
	}
	app.Authors = []cli.Author{
		{
			Name:  "Iulian Pascalau",
			Email: "iulian.pascalau@gmail.com",
		},
	}

	app.Action = run

	defer func() {
		if !check.IfNil(fileLogging) {
			_ = fileLogging.Close()
		}
	}()

	err := app.Run(os.Args)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	var err error
	fileLogging, err = commonGo.SetupLogging(log, commonGo.ArgsLogging{
		LogLevel:      ctx.GlobalString(logLevel.Name),
		SaveLogFile:   ctx.GlobalBool(logSaveFile.Name),
		WorkingDir:    ctx.GlobalString(workingDirectory.Name),
		LogFilePrefix: logFilePrefix,
		LifeSpanInSec: logFileLifeSpanInSec,
		LifeSpanInMB:  logFileLifeSpanInMB,
	})
	if err != nil {
		return err
	}

	log.Info("Starting benchmark tracker", "version", appVersion, "pid", os.Getpid())

	err = commonGo.ReadEnvFile(ctx.GlobalString(envFile.Name), envFileContents)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(ctx.GlobalString(configFile.Name))
	if err != nil {
		return err
	}

	components, err := factory.NewComponentsHandler(factory.ArgsComponentsHandler{
		ServiceKeyApi: envFileContents[envServiceKey],
		Config:        *cfg,
		ImportPath:    ctx.GlobalString(importFile.Name),
	})
	if err != nil {
		return err
	}

	err = components.Start()
	if err != nil {
		components.Close()
		return err
	}
	log.Info("Benchmark tracker started", "address", components.GetServer().Address(), "storage", cfg.Storage.Type)

	sig := commonGo.WaitForShutdownSignal()

	log.Info("Application closing, calling Close on all subcomponents...", "signal", sig.String())
	components.Close()

	return nil
}
