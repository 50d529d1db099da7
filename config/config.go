// Package config loads the settings of a landmark detection run from command
// line flags, GOLANDMARKS_* environment variables and an optional config
// file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/GreatValueCreamSoda/golandmarks/detection"
	"github.com/GreatValueCreamSoda/golandmarks/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FlagGroupAnnotation is the pflag annotation key holding a flag's help group.
const FlagGroupAnnotation = "group"

const envPrefix = "GOLANDMARKS"

// Config is a fully resolved and validated run configuration.
type Config struct {
	SDKPath        string
	Model          detection.Model
	Workers        int
	MaxClassifiers int
	Trace          bool

	Images []string
	Video  string
	Output string

	MetricsAddr string
	Progress    bool

	Log logging.Config
}

// NewFlagSet registers every setting on a new flag set. Flags are annotated
// with their help group so usage output can be grouped.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	// General Flags
	fs.String("config", "", "Optional config file (yaml, json or toml)")
	fs.String("sdk", "", "SDK root containing share/openbr/models")
	fs.String("model", string(detection.ModelFrontalFace), fmt.Sprintf("Cascade model used to find faces %v", detection.Models()))
	fs.Int("workers", runtime.NumCPU(), "Number of images processed in parallel")
	fs.Int("max-classifiers", 0, "Upper bound on loaded classifiers. 0 grows on demand")
	fs.Bool("trace", false, "Enable the landmark engine's own tracing")
	fs.BoolP("help", "h", false, "Show this help message")

	// Input / Output
	var ioSection string = "Input and Output Options"
	fs.StringSlice("images", nil, "Comma separated list of images. Positional arguments are appended")
	AddFlagToHelpGroup(fs, "images", ioSection)
	fs.String("video", "", "Video whose frames are processed instead of images")
	AddFlagToHelpGroup(fs, "video", ioSection)
	fs.StringP("output", "o", "", "Write landmarks as JSON to this path. Empty writes to stdout")
	AddFlagToHelpGroup(fs, "output", ioSection)
	fs.Bool("progress", true, "Show a progress bar on stderr")
	AddFlagToHelpGroup(fs, "progress", ioSection)

	// Observability
	var obsSection string = "Observability Options"
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	AddFlagToHelpGroup(fs, "log-level", obsSection)
	fs.String("log-encoding", "console", "Log encoding (console or json)")
	AddFlagToHelpGroup(fs, "log-encoding", obsSection)
	fs.String("metrics-addr", "", "Serve Prometheus metrics on this address. Empty disables")
	AddFlagToHelpGroup(fs, "metrics-addr", obsSection)

	return fs
}

// AddFlagToHelpGroup annotates flagName with helpGroupName. It panics on an
// unknown flag since that is a programming error.
func AddFlagToHelpGroup(fs *pflag.FlagSet, flagName, helpGroupName string) {
	lookupFlag := fs.Lookup(flagName)
	if lookupFlag == nil {
		panic("unknown flag: " + flagName)
	}

	if lookupFlag.Annotations == nil {
		lookupFlag.Annotations = map[string][]string{}
	}
	lookupFlag.Annotations[FlagGroupAnnotation] = []string{helpGroupName}
}

// ErrHelp is returned by Load when --help was given.
var ErrHelp = pflag.ErrHelp

// Load parses args into fs and resolves the configuration.
func Load(fs *pflag.FlagSet, args []string) (Config, error) {
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if help, _ := fs.GetBool("help"); help {
		return Config{}, ErrHelp
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", file,
				err)
		}
	}

	cfg := Config{
		SDKPath:        v.GetString("sdk"),
		Model:          detection.Model(v.GetString("model")),
		Workers:        v.GetInt("workers"),
		MaxClassifiers: v.GetInt("max-classifiers"),
		Trace:          v.GetBool("trace"),
		Images:         append(v.GetStringSlice("images"), fs.Args()...),
		Video:          v.GetString("video"),
		Output:         v.GetString("output"),
		MetricsAddr:    v.GetString("metrics-addr"),
		Progress:       v.GetBool("progress"),
		Log: logging.Config{
			Level:       v.GetString("log-level"),
			Encoding:    v.GetString("log-encoding"),
			OutputPaths: []string{"stderr"},
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks that cfg describes a runnable configuration.
func (c Config) Validate() error {
	var errs []error

	if c.SDKPath == "" {
		errs = append(errs, errors.New("sdk path must be specified"))
	}
	if _, err := detection.ParseModel(string(c.Model)); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("at least 1 worker must be used"))
	}
	if c.MaxClassifiers < 0 {
		errs = append(errs, errors.New("max classifiers must not be negative"))
	}

	switch {
	case len(c.Images) == 0 && c.Video == "":
		errs = append(errs, errors.New("no images or video to process"))
	case len(c.Images) > 0 && c.Video != "":
		errs = append(errs, errors.New("images and video are mutually "+
			"exclusive"))
	}

	return errors.Join(errs...)
}
