package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/iulianpascalau/bench-tracker/commonGo"
	"github.com/iulianpascalau/bench-tracker/services/submitter/common"
	"github.com/iulianpascalau/bench-tracker/services/submitter/config"
	"github.com/iulianpascalau/bench-tracker/services/submitter/factory"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/urfave/cli"
)

const (
	logFilePrefix        = "submitter"
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
	submitterHelpTemplate = `NAME:
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

	log = logger.GetOrCreate("submitter")

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
		Usage: "This flag specifies the `directory` where the submitter will store logs.",
		Value: "",
	}
	configFile = cli.StringFlag{
		Name:  "config",
		Usage: "The `filepath` for the submitter TOML configuration file.",
		Value: "./config.toml",
	}
	envFile = cli.StringFlag{
		Name:  "env-file",
		Usage: "The `filepath` for the .env file holding the " + envServiceKey + " variable.",
		Value: "./.env",
	}
	revisionID = cli.StringFlag{
		Name:   "revision-id",
		Usage:  "The commit `hash` the benchmarks were run against.",
		EnvVar: "GITHUB_SHA",
	}
	revisionMessage = cli.StringFlag{
		Name:  "revision-message",
		Usage: "The commit `message`.",
	}
	revisionTimestamp = cli.StringFlag{
		Name:  "revision-timestamp",
		Usage: "The commit `time` as RFC3339 or Unix seconds. Defaults to the submission time.",
	}
	revisionURL = cli.StringFlag{
		Name:  "revision-url",
		Usage: "The `URL` of the commit page.",
	}
	authorName = cli.StringFlag{
		Name:  "author-name",
		Usage: "The commit author `name`.",
	}
	authorHandle = cli.StringFlag{
		Name:   "author-handle",
		Usage:  "The commit author `handle`.",
		EnvVar: "GITHUB_ACTOR",
	}
	committerName = cli.StringFlag{
		Name:  "committer-name",
		Usage: "The committer `name`. Defaults to the author.",
	}
	committerHandle = cli.StringFlag{
		Name:  "committer-handle",
		Usage: "The committer `handle`.",
	}

	envFileContents = map[string]string{
		envServiceKey: "",
	}
)

func main() {
	app := cli.NewApp()
	cli.AppHelpTemplate = submitterHelpTemplate
	app.Name = "Benchmark run submitter"
	app.Version = fmt.Sprintf("%s/%s/%s-%s", appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	app.Usage = "This tool collects the benchmark outputs of one revision and submits them to the tracker"
	app.Flags = []cli.Flag{
		logLevel,
		logSaveFile,
		workingDirectory,
		configFile,
		envFile,
		revisionID,
		revisionMessage,
		revisionTimestamp,
		revisionURL,
		authorName,
		authorHandle,
		committerName,
		committerHandle,
	}
	app.Authors = []cli.Author{
		{
			Name:  "Iulian Pascalau",
			Email: "iulian.pascalau@gmail.com",
		},
	}

	app.Action = run

	err := app.Run(os.Args)
	if !check.IfNil(fileLogging) {
		_ = fileLogging.Close()
	}
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

	log.Info("Starting benchmark submitter", "version", appVersion, "pid", os.Getpid())

	err = commonGo.ReadEnvFile(ctx.GlobalString(envFile.Name), envFileContents)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(ctx.GlobalString(configFile.Name))
	if err != nil {
		return err
	}

	revision, err := revisionFromFlags(ctx)
	if err != nil {
		return err
	}

	components, err := factory.NewComponentsHandler(envFileContents[envServiceKey], *cfg, revision)
	if err != nil {
		return err
	}

	return components.Run(context.Background())
}

func revisionFromFlags(ctx *cli.Context) (common.RevisionInfo, error) {
	revision := common.RevisionInfo{
		ID:              ctx.GlobalString(revisionID.Name),
		Message:         ctx.GlobalString(revisionMessage.Name),
		AuthorName:      ctx.GlobalString(authorName.Name),
		AuthorHandle:    ctx.GlobalString(authorHandle.Name),
		CommitterName:   ctx.GlobalString(committerName.Name),
		CommitterHandle: ctx.GlobalString(committerHandle.Name),
		URL:             ctx.GlobalString(revisionURL.Name),
	}
	if len(revision.ID) == 0 {
		return common.RevisionInfo{}, fmt.Errorf("the --%s flag is required", revisionID.Name)
	}
	if len(revision.AuthorName) == 0 {
		revision.AuthorName = revision.AuthorHandle
	}

	timestamp, err := parseTimestamp(ctx.GlobalString(revisionTimestamp.Name))
	if err != nil {
		return common.RevisionInfo{}, err
	}
	revision.Timestamp = timestamp

	return revision, nil
}

func parseTimestamp(value string) (int64, error) {
	if len(value) == 0 {
		return 0, nil
	}

	seconds, err := strconv.ParseInt(value, 10, 64)
	if err == nil {
		return seconds, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return 0, fmt.Errorf("%w while parsing the revision timestamp", err)
	}

	return t.Unix(), nil
}
