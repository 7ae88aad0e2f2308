package commonGo

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/multiversx/mx-chain-logger-go/file"
)

const defaultLogsPath = "logs"

// ArgsLogging holds the logging settings shared by the tracker and submitter binaries
type ArgsLogging struct {
	LogLevel      string
	SaveLogFile   bool
	WorkingDir    string
	LogFilePrefix string
	LifeSpanInSec uint64
	LifeSpanInMB  uint64
}

// SetupLogging applies the log level and attaches, if required, a rotating log file
func SetupLogging(log logger.Logger, args ArgsLogging) (FileLoggingHandler, error) {
	err := logger.SetLogLevel(args.LogLevel)
	if err != nil {
		return nil, err
	}

	fileLogging, err := AttachFileLogger(log, defaultLogsPath, args.LogFilePrefix, args.SaveLogFile, args.WorkingDir)
	if err != nil {
		return nil, err
	}
	if check.IfNil(fileLogging) {
		return nil, nil
	}

	err = fileLogging.ChangeFileLifeSpan(time.Second*time.Duration(args.LifeSpanInSec), args.LifeSpanInMB)
	if err != nil {
		_ = fileLogging.Close()
		return nil, err
	}

	return fileLogging, nil
}

// AttachFileLogger attaches, if required, a log file
func AttachFileLogger(
	log logger.Logger,
	defaultLogsPath string,
	logFilePrefix string,
	saveLogFile bool,
	workingDir string) (FileLoggingHandler, error) {
	if !saveLogFile {
		return nil, nil
	}

	argsFileLogging := file.ArgsFileLogging{
		WorkingDir:      workingDir,
		DefaultLogsPath: defaultLogsPath,
		LogFilePrefix:   logFilePrefix,
	}
	logFile, err := file.NewFileLogging(argsFileLogging)
	if err != nil {
		return nil, fmt.Errorf("%w creating a log file", err)
	}

	err = logger.SetDisplayByteSlice(logger.ToHex)
	log.LogIfError(err)

	return logFile, nil
}

// ReadEnvFile will read the file contents in the provided map. Variables already exported in the
// process environment win over the file, and a missing file is tolerated when every key is exported.
func ReadEnvFile(envFile string, m map[string]string) error {
	errLoad := godotenv.Load(envFile)

	for k := range m {
		val := os.Getenv(k)
		if len(val) == 0 {
			if errLoad != nil {
				return fmt.Errorf("%w while looking for %s", errLoad, k)
			}
			return fmt.Errorf("%s is not set in the .env file", k)
		}

		m[k] = val
	}

	return nil
}

// CronJobStarter is able to start a go routine that periodically calls the provided handler. The time between calls is
// provided as timeToCall
func CronJobStarter(ctx context.Context, handler func(ctx context.Context), timeToCall time.Duration) {
	go func() {
		timer := time.NewTimer(timeToCall)
		defer timer.Stop()

		for {
			select {
			case <-timer.C:
				handler(ctx)
				timer.Reset(timeToCall)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// WaitForShutdownSignal blocks until the process receives SIGINT or SIGTERM
func WaitForShutdownSignal() os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	return <-sigs
}
