package runner

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	RunModeWeb = iota + 1
	RunModeWorker
	RunModeProduce
)

var (
	ErrInvalidRunMode = errors.New("invalid run mode")
)

type Runner interface {
	Run(context.Context) error
	Close(context.Context) error
}

type Config struct {
	Concurrency              int
	Addr                     string
	InputFile                string
	Debug                    bool
	Dsn                      string
	ExitOnInactivityDuration time.Duration
	CacheTTL                 time.Duration
	PageSize                 int
	ListID                   string
	OwnerID                  string
	WebhookURL               string
	RunMode                  int
}

func ParseConfig() *Config {
	cfg := Config{}

	var mode string

	flag.StringVar(&mode, "mode", "web", "run mode: web, worker or produce [default: web]")
	flag.IntVar(&cfg.Concurrency, "c", max(runtime.NumCPU()/2, 1), "sets the concurrency [default: half of CPU cores]")
	flag.StringVar(&cfg.Addr, "addr", ":8080", "address for the HTTP API [default: :8080]")
	flag.StringVar(&cfg.InputFile, "input", "", "path to the input file with SIREN numbers (one per line) [default: empty]")
	flag.BoolVar(&cfg.Debug, "debug", false, "enable verbose logging [default: false]")
	flag.StringVar(&cfg.Dsn, "dsn", "", "database connection string [required for worker/produce]")
	flag.DurationVar(&cfg.ExitOnInactivityDuration, "exit-on-inactivity", 0, "exit after inactivity duration (e.g., '5m')")
	flag.DurationVar(&cfg.CacheTTL, "cache-ttl", 5*time.Minute, "TTL of the in-memory search cache [default: 5m]")
	flag.IntVar(&cfg.PageSize, "page-size", 20, "default page size for searches (max 1000)")
	flag.StringVar(&cfg.ListID, "list", "", "target list id for produced jobs")
	flag.StringVar(&cfg.OwnerID, "owner", "cli", "owner id for produced jobs [default: cli]")
	flag.StringVar(&cfg.WebhookURL, "job-completion-api", "", "URL notified when a root job completes")

	flag.Parse()

	if cfg.Concurrency < 1 {
		panic("Concurrency must be greater than 0")
	}

	if cfg.PageSize < 1 || cfg.PageSize > 1000 {
		panic("PageSize must be between 1 and 1000")
	}

	switch mode {
	case "web":
		cfg.RunMode = RunModeWeb
	case "worker":
		cfg.RunMode = RunModeWorker
	case "produce":
		cfg.RunMode = RunModeProduce
	default:
		panic("mode must be one of: web, worker, produce")
	}

	if cfg.RunMode != RunModeWeb && cfg.Dsn == "" {
		panic("Dsn must be provided for worker and produce modes")
	}

	if cfg.RunMode == RunModeProduce && cfg.InputFile == "" {
		panic("InputFile must be provided in produce mode")
	}

	return &cfg
}

func wrapText(text string, width int) []string {
	var lines []string

	currentLine := ""
	currentWidth := 0

	for _, r := range text {
		runeWidth := runewidth.RuneWidth(r)
		if currentWidth+runeWidth > width {
			lines = append(lines, currentLine)
			currentLine = string(r)
			currentWidth = runeWidth
		} else {
			currentLine += string(r)
			currentWidth += runeWidth
		}
	}

	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}

func banner(messages []string, width int) string {
	if width <= 0 {
		var err error

		width, _, err = term.GetSize(0)
		if err != nil {
			width = 80
		}
	}

	if width < 20 {
		width = 20
	}

	contentWidth := width - 4

	var wrappedLines []string
	for _, message := range messages {
		wrappedLines = append(wrappedLines, wrapText(message, contentWidth)...)
	}

	var builder strings.Builder

	builder.WriteString("╔" + strings.Repeat("═", width-2) + "╗\n")

	for _, line := range wrappedLines {
		lineWidth := runewidth.StringWidth(line)
		paddingRight := contentWidth - lineWidth

		if paddingRight < 0 {
			paddingRight = 0
		}

		builder.WriteString(fmt.Sprintf("║ %s%s ║\n", line, strings.Repeat(" ", paddingRight)))
	}

	builder.WriteString("╚" + strings.Repeat("═", width-2) + "╝\n")

	return builder.String()
}

func Banner() {
	message1 := "🏢 SIRENE Search"
	message2 := "🔎 Recherche d'entreprises via le répertoire SIRENE de l'INSEE"
	message3 := "🔑 Définissez INSEE_API_KEY pour authentifier les appels API"

	fmt.Fprintln(os.Stderr, banner([]string{message1, message2, message3}, 0))
}
