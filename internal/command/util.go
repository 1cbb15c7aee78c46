package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stolasapp/calliope/internal/config"
	"github.com/stolasapp/calliope/internal/content"
	"github.com/stolasapp/calliope/internal/service"
)

type configKey struct{}

// stdinArg selects standard input as the input file.
const stdinArg = "-"

func prompt(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if _, err := io.WriteString(cmd.ErrOrStderr(), prompt); err != nil {
			return "", err
		}
	}
	var line strings.Builder
	var buf [1]byte
	for {
		n, err := cmd.InOrStdin().Read(buf[:])
		if n > 0 {
			switch buf[0] {
			case '\n':
				return strings.TrimSpace(line.String()), nil
			case '\r':
				// ignored; a following \n ends the line
			default:
				line.WriteByte(buf[0])
			}
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return strings.TrimSpace(line.String()), nil
			}
			return "", err
		}
	}
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown-dev"
	}
	ver := "unknown"
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			ver = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if dirty {
		ver += "-dev"
	}
	return ver
}

func loadConfig(ctx context.Context) (*config.Config, *slog.Logger, error) {
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok {
		return nil, nil, errors.New("config file resolution failed")
	}
	return cfg, slog.Default(), nil
}

func loadService(ctx context.Context) (*config.Config, *slog.Logger, *service.Service, error) {
	cfg, logger, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	svc, err := service.New(cfg.Rendering(), logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, svc, nil
}

// readSource reads the named file, or standard input for "-" or no name,
// decodes it to UTF-8 and wraps it as a render source. With asEntry the
// input is a JSON post entry rather than a bare body.
func readSource(cmd *cobra.Command, args []string, asEntry bool) (service.Source, error) {
	name := stdinArg
	if len(args) > 0 {
		name = args[0]
	}

	var (
		data []byte
		err  error
	)
	if name == stdinArg {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name) //nolint:gosec // reading user-named input is the point
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if asEntry {
		return service.DecodeEntry(data)
	}

	contentType := ""
	if name != stdinArg {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	decoded, err := content.DecodeBody(contentType)(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}
	return service.Text(decoded), nil
}

func writeLine(cmd *cobra.Command, s string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), s)
	return err
}
