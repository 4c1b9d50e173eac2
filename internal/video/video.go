package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

// Encoder принимает упорядоченную последовательность кадров одного размера
// и собирает из неё видеофайл.
type Encoder interface {
	Encode(ctx context.Context, frames []*image.RGBA, fps int, outPath string) error
}

// EncodingError — фатальная ошибка кодирования; частичный файл уже удалён.
type EncodingError struct {
	Path string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("ошибка кодирования %s: %v", e.Path, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

type FFmpegEncoder struct {
	EncoderName string // libx264, h264_videotoolbox, h264_nvenc
	Quality     int
	Threads     int
}

func (e *FFmpegEncoder) Encode(ctx context.Context, frames []*image.RGBA, fps int, outPath string) error {
	if len(frames) == 0 {
		return &EncodingError{Path: outPath, Err: fmt.Errorf("нет кадров для кодирования")}
	}
	bounds := frames[0].Bounds()
	args := e.buildFFmpegArgs(bounds.Dx(), bounds.Dy(), fps, outPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var logBuf bytes.Buffer
	cmd.Stdout = &logBuf
	cmd.Stderr = &logBuf

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &EncodingError{Path: outPath, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return &EncodingError{Path: outPath, Err: err}
	}

	// Пишем raw RGBA кадры в stdin, пока ffmpeg кодирует их на лету.
	var g errgroup.Group
	g.Go(func() error {
		defer stdin.Close()
		for i, frame := range frames {
			if frame.Bounds() != bounds {
				return fmt.Errorf("кадр %d имеет размер %v, ожидается %v", i, frame.Bounds(), bounds)
			}
			if _, err := stdin.Write(frame.Pix); err != nil {
				return fmt.Errorf("запись кадра %d: %w", i, err)
			}
		}
		return nil
	})
	g.Go(cmd.Wait)

	if err := g.Wait(); err != nil {
		os.Remove(outPath)
		return &EncodingError{Path: outPath, Err: fmt.Errorf("%w\nLog: %s", err, logBuf.String())}
	}
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(inputW, inputH, fps int, outPath string) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", inputW, inputH),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-r", fmt.Sprintf("%d", fps),
		"-pix_fmt", "yuv420p",
		"-an",
		"-c:v", e.EncoderName,
	}

	// Качество в зависимости от энкодера
	switch e.EncoderName {
	case "h264_videotoolbox":
		bitrate := e.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	if e.Threads > 0 {
		args = append(args, "-threads", fmt.Sprintf("%d", e.Threads))
	}
	args = append(args, outPath)
	return args
}
