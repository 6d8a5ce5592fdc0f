package bench

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pantuza/blfbench/pkg/archive/awss3"
	"github.com/pantuza/blfbench/pkg/blf"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultOutputDirectory receives the generated log files when no
	// --output-dir flag is given.
	DefaultOutputDirectory = "blf_multi_writer_logs"

	DefaultFileCount       = 10
	DefaultMessagesPerFile = 200000
	DefaultQueueSize       = 10000

	// The default staging budget holds this many containers per writer
	DefaultUncompressedContainers = 16

	taskFileFormat = "can_channel_%d.blf"
)

// ErrHelp is returned by ParseArgs when the command line asks for usage text
// instead of a benchmark run.
var ErrHelp = errors.New("help requested")

// Config carries the resolved parameters of one benchmark run. It is built
// once from defaults, an optional YAML file and the command line, then
// treated as read-only by every writer task.
type Config struct {
	// Number of log files written in parallel, one writer task each
	FileCount int `yaml:"files"`

	// Number of synthetic frames written per file
	MessagesPerFile int `yaml:"messages"`

	// Capacity of each writer's internal object queue
	QueueSize int `yaml:"queueSize"`

	// In-memory staging size in bytes before data is handed to compression
	UncompressedBufferSize int `yaml:"uncompressedBytes"`

	// Uncompressed size in bytes of one log container
	LogContainerSize int `yaml:"logContainerBytes"`

	// Background compression workers per writer
	CompressionThreads int `yaml:"compressionThreads"`

	// Directory used for generated log files
	OutputDirectory string `yaml:"outputDir"`

	// Verbosity of harness diagnostics on stderr
	LogLevel string `yaml:"logLevel"`

	// Optional post-run upload of the generated files to S3
	Archive *awss3.Config `yaml:"archive,omitempty"`
}

// NewConfig returns the default configuration. Library-chosen defaults are
// read once from a throwaway writer instance, before any user override is
// applied.
func NewConfig() *Config {
	defaults := blf.NewWriter()
	containerSize := defaults.DefaultLogContainerSize()

	return &Config{
		FileCount:              DefaultFileCount,
		MessagesPerFile:        DefaultMessagesPerFile,
		QueueSize:              DefaultQueueSize,
		UncompressedBufferSize: containerSize * DefaultUncompressedContainers,
		LogContainerSize:       containerSize,
		CompressionThreads:     defaults.CompressionThreadCount(),
		OutputDirectory:        DefaultOutputDirectory,
		LogLevel:               "error",
	}
}

// loadConfigFromFile overlays values from a YAML file onto cfg.
func loadConfigFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return NewBenchError(BenchConfigFile, fmt.Sprintf("unable to read config file '%s'", filename), map[string]string{"error": err.Error()})
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return NewBenchError(BenchConfigFile, fmt.Sprintf("unable to parse config file '%s'", filename), map[string]string{"error": err.Error()})
	}

	return nil
}

// ParseArgs resolves the run configuration from defaults, the optional YAML
// config file and the command-line flags, in that precedence order. It
// returns ErrHelp when the command line asks for usage text.
func ParseArgs(args []string) (*Config, error) {
	cfg := NewConfig()

	// The config file is applied first so flags can override its values
	for i := 0; i < len(args); i++ {
		if args[i] != "--config" {
			continue
		}
		value, err := requireValue(args, &i, "--config")
		if err != nil {
			return nil, err
		}
		if err := loadConfigFromFile(cfg, value); err != nil {
			return nil, err
		}
	}

	for i := 0; i < len(args); i++ {
		argument := args[i]

		switch argument {
		case "-h", "--help":
			return nil, ErrHelp

		case "--config":
			i++ // value already consumed by the first pass

		case "--files":
			value, err := parsePositive(args, &i, argument)
			if err != nil {
				return nil, err
			}
			cfg.FileCount = value

		case "--messages":
			value, err := parsePositive(args, &i, argument)
			if err != nil {
				return nil, err
			}
			cfg.MessagesPerFile = value

		case "--queue-size":
			value, err := parsePositive(args, &i, argument)
			if err != nil {
				return nil, err
			}
			cfg.QueueSize = value

		case "--uncompressed-bytes":
			value, err := parsePositive(args, &i, argument)
			if err != nil {
				return nil, err
			}
			cfg.UncompressedBufferSize = value

		case "--log-container-bytes":
			value, err := parsePositive(args, &i, argument)
			if err != nil {
				return nil, err
			}
			cfg.LogContainerSize = value

		case "--compression-threads":
			value, err := parsePositive(args, &i, argument)
			if err != nil {
				return nil, err
			}
			cfg.CompressionThreads = value

		case "--output-dir":
			value, err := requireValue(args, &i, argument)
			if err != nil {
				return nil, err
			}
			cfg.OutputDirectory = value

		default:
			return nil, NewBenchError(BenchUnknownFlag, fmt.Sprintf("Unknown argument '%s'. Pass --help for usage", argument), nil)
		}
	}

	cfg.clamp()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// requireValue consumes and returns the value following a flag.
func requireValue(args []string, index *int, flagName string) (string, error) {
	if *index+1 >= len(args) {
		return "", NewBenchError(BenchBadArgument, fmt.Sprintf("missing value for argument '%s'", flagName), nil)
	}

	*index++
	return args[*index], nil
}

// parsePositive consumes the value following a numeric flag and parses it as
// a positive integer.
func parsePositive(args []string, index *int, flagName string) (int, error) {
	value, err := requireValue(args, index, flagName)
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, NewBenchError(BenchBadArgument, fmt.Sprintf("unable to parse numeric value '%s' for argument '%s'", value, flagName), nil)
	}
	if n <= 0 {
		return 0, NewBenchError(BenchBadArgument, fmt.Sprintf("'%s' requires a positive value", flagName), nil)
	}

	return n, nil
}

// clamp corrects configuration values that are individually valid but
// jointly nonsensical. A staging buffer smaller than one container is
// silently raised to the container size.
func (c *Config) clamp() {
	if c.UncompressedBufferSize < c.LogContainerSize {
		c.UncompressedBufferSize = c.LogContainerSize
	}
}

// Validate checks the resolved configuration. It catches bad values coming
// from a YAML file, which bypass the per-flag checks.
func (c *Config) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"files", c.FileCount},
		{"messages", c.MessagesPerFile},
		{"queueSize", c.QueueSize},
		{"uncompressedBytes", c.UncompressedBufferSize},
		{"logContainerBytes", c.LogContainerSize},
		{"compressionThreads", c.CompressionThreads},
	}

	for _, check := range checks {
		if check.value < 1 {
			return NewBenchError(BenchBadArgument, fmt.Sprintf("'%s' requires a positive value, got %d", check.name, check.value), nil)
		}
	}

	if c.OutputDirectory == "" {
		return NewBenchError(BenchBadArgument, "output directory must not be empty", nil)
	}

	return nil
}

// OutputFilePath returns the log file written by the task at index.
func (c *Config) OutputFilePath(index int) string {
	return filepath.Join(c.OutputDirectory, fmt.Sprintf(taskFileFormat, index+1))
}

// Usage returns the command-line help text.
func Usage(program string) string {
	return fmt.Sprintf(`Usage: %s [options]
  --files <count>              Number of BLF files to write in parallel (default: 10)
  --messages <count>           Number of CAN frames per file (default: 200000)
  --queue-size <count>         Object queue capacity per file (default: 10000)
  --uncompressed-bytes <size>  In-memory staging size in bytes (default: logContainerSize * 16)
  --log-container-bytes <size> Log container size for new files (default: library default)
  --compression-threads <n>    Background compression workers per file (default: hardware concurrency)
  --output-dir <path>          Directory used for generated BLF files
  --config <path>              YAML file with benchmark and archive settings
`, program)
}
