package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	diagFileName    = "diagnostics_log.txt"
	captionFileName = "caption_log.txt"
)

var (
	diagLog     zerolog.Logger
	diagFile    *os.File
	captionFile *os.File
	logMu       sync.Mutex
	logReady    bool
	pid         int
	dir         string
	level       = zerolog.InfoLevel
)

// TranslationEntry describes one finished request to the translation endpoint.
type TranslationEntry struct {
	Seq        uint64
	Lang       string
	HTTPStatus int
	Chars      int
	Host       string
	LangPair   string
	DNSMs      float64
	TLSMs      float64
	TTFBMs     float64
	TotalMs    float64
	ConnReused bool
	Err        error
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absFromWd(flagPath)
	}

	// Priority 2: PARLEY_LOG_PATH environment variable
	if envPath := os.Getenv("PARLEY_LOG_PATH"); envPath != "" {
		return absFromWd(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absFromWd(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

// SetLevel accepts zerolog level names ("debug", "info", "warn", "error").
// Unknown names leave the current level untouched.
func SetLevel(name string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return fmt.Errorf("log level %q: %w", name, err)
	}
	logMu.Lock()
	level = lvl
	if logReady {
		diagLog = diagLog.Level(lvl)
	}
	logMu.Unlock()
	return nil
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagFile, err = os.OpenFile(filepath.Join(dir, diagFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	captionFile, err = os.OpenFile(filepath.Join(dir, captionFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).Level(level).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if captionFile != nil {
		captionFile.Close()
		captionFile = nil
	}
	logReady = false
}

func Debug(msg string) {
	if logReady {
		diagLog.Debug().Msg(msg)
	}
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Translation(e TranslationEntry) {
	if !logReady {
		return
	}

	connStatus := "new"
	if e.ConnReused {
		connStatus = "reused"
	}

	ev := diagLog.Info()
	if e.Err != nil {
		ev = diagLog.Warn().Str("error", e.Err.Error())
	}
	ev.Uint64("seq", e.Seq).
		Str("lang", e.Lang).
		Int("http_status", e.HTTPStatus).
		Int("chars", e.Chars).
		Str("host", e.Host).
		Str("langpair", e.LangPair).
		Str("conn", connStatus).
		Float64("dns_ms", e.DNSMs).
		Float64("tls_ms", e.TLSMs).
		Float64("ttfb_ms", e.TTFBMs).
		Float64("total_ms", e.TotalMs).
		Msg("translation")
}

// Caption appends a "source -> target" line to caption_log.txt.
func Caption(lang, source, translated string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\t%s\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, lang, source, translated)
	captionFile.WriteString(line)
}

func SessionStart(recognizer, lang, meeting string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("recognizer", recognizer).
		Str("lang", lang).
		Str("meeting", meeting).
		Msg("session_start")
}

func SessionEnd(translations int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("translations", translations).
		Msg("session_end")
}
