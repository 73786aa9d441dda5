package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	gozap "go.uber.org/zap"
	gozapcore "go.uber.org/zap/zapcore"
)

const (
	defaultLogFormat  = "console"
	defaultJSONPreset = string(JSONPresetKibana)
)

// Options centralizes the fields required for logger bootstrap. Skynet reads
// everything from Config — env vars frozen once at startup, not flags.
type Options struct {
	Level      string
	Format     string
	JSONPreset string
}

// Result captures the final logging state after Apply runs.
type Result struct {
	Format     string
	JSONPreset JSONPreset
	Warning    string
}

// NewOptions returns Options with Skynet's defaults: console output at info level.
func NewOptions() *Options {
	return &Options{
		Level:      "info",
		Format:     defaultLogFormat,
		JSONPreset: defaultJSONPreset,
	}
}

// Apply builds the process-wide zap logger and returns it wrapped as a
// logr.Logger, the type every component constructor accepts.
func (o *Options) Apply() (logr.Logger, Result, error) {
	if o == nil {
		return logr.Discard(), Result{}, fmt.Errorf("logging options is nil")
	}

	preset, err := ParseJSONPreset(o.JSONPreset)
	if err != nil {
		return logr.Discard(), Result{}, err
	}
	SetJSONConfig(JSONConfig{Preset: preset})

	level, warning := parseLevel(o.Level)

	format := o.Format
	if format == "" {
		format = defaultLogFormat
	}

	var encoder gozapcore.Encoder
	switch format {
	case "", "console":
		format = "console"
		setActiveJSON(false)
		cfg := gozap.NewDevelopmentEncoderConfig()
		encoder = gozapcore.NewConsoleEncoder(cfg)
	case "json":
		setActiveJSON(true)
		switch preset {
		case JSONPresetOTel:
			encoder = NewOTelJSONEncoder()
		default:
			encoder = NewKibanaJSONEncoder()
		}
	default:
		return logr.Discard(), Result{}, fmt.Errorf("unsupported log format %q", format)
	}

	core := gozapcore.NewCore(encoder, gozapcore.Lock(os.Stdout), level)
	core = WrapCore(core, 1)

	zl := gozap.New(core, gozap.AddCaller(), gozap.AddCallerSkip(1))
	if kv := ResourceKeyValues(); len(kv) > 0 {
		zl = zl.Sugar().With(kv...).Desugar()
	}

	_ = gozap.ReplaceGlobals(zl)
	_ = gozap.RedirectStdLog(zl)

	return zapr.NewLogger(zl), Result{Format: format, JSONPreset: preset, Warning: warning}, nil
}

func parseLevel(raw string) (gozapcore.Level, string) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return gozapcore.InfoLevel, ""
	case "debug":
		return gozapcore.DebugLevel, ""
	case "warn", "warning":
		return gozapcore.WarnLevel, ""
	case "error":
		return gozapcore.ErrorLevel, ""
	default:
		return gozapcore.InfoLevel, fmt.Sprintf("WARNING: unrecognized LOG_LEVEL %q, defaulting to info", raw)
	}
}
