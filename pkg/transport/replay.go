package transport

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/travigo/pushport/pkg/pushport/frame"
)

// Replay feeds captured payload files through handle, one frame per file,
// in the order given. Directories are expanded to the files they contain.
type Replay struct {
	Fs          afero.Fs
	MessageType string
}

func (r *Replay) fs() afero.Fs {
	if r.Fs == nil {
		return afero.NewOsFs()
	}

	return r.Fs
}

func (r *Replay) Files(paths []string) ([]string, error) {
	var files []string

	for _, path := range paths {
		info, err := r.fs().Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = afero.Walk(r.fs(), path, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && !strings.HasPrefix(filepath.Base(file), ".") {
				files = append(files, file)
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func (r *Replay) Run(ctx context.Context, paths []string, handle Handler) error {
	files, err := r.Files(paths)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := afero.ReadFile(r.fs(), file)
		if err != nil {
			return err
		}

		f := frame.Frame{
			Payload:     payload,
			MessageType: r.MessageType,
			Source:      file,
		}

		if err := handle(ctx, f); err != nil {
			log.Error().Err(err).Str("file", file).Msg("Failed to handle message")
		}
	}

	return nil
}
