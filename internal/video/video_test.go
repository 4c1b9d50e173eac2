package video

import (
	"context"
	"image"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func argsString(e *FFmpegEncoder) string {
	return strings.Join(e.buildFFmpegArgs(1024, 768, 10, "out.mp4"), " ")
}

func TestBuildFFmpegArgsQualityPerEncoder(t *testing.T) {
	libx264 := argsString(&FFmpegEncoder{EncoderName: "libx264", Quality: 23, Threads: 4})
	for _, want := range []string{
		"-f rawvideo",
		"-pixel_format rgba",
		"-video_size 1024x768",
		"-framerate 10",
		"-c:v libx264",
		"-crf 23",
		"-preset medium",
		"-threads 4",
	} {
		if !strings.Contains(libx264, want) {
			t.Errorf("libx264 args missing %q: %s", want, libx264)
		}
	}

	vt := argsString(&FFmpegEncoder{EncoderName: "h264_videotoolbox", Quality: 75})
	if !strings.Contains(vt, "-b:v 7500k") {
		t.Errorf("videotoolbox must map quality to bitrate: %s", vt)
	}
	if strings.Contains(vt, "-threads") {
		t.Errorf("threads 0 must not emit a -threads flag: %s", vt)
	}

	nvenc := argsString(&FFmpegEncoder{EncoderName: "h264_nvenc", Quality: 28})
	if !strings.Contains(nvenc, "-cq 28") {
		t.Errorf("nvenc must use -cq: %s", nvenc)
	}
}

func TestEncodeRejectsEmptyFrameList(t *testing.T) {
	enc := &FFmpegEncoder{EncoderName: "libx264", Quality: 23}
	err := enc.Encode(context.Background(), nil, 10, "out.mp4")
	if _, ok := err.(*EncodingError); !ok {
		t.Fatalf("expected *EncodingError, got: %v", err)
	}
}

func TestEncodeRejectsMismatchedFrameSizes(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	enc := &FFmpegEncoder{EncoderName: "libx264", Quality: 23}
	frames := []*image.RGBA{
		image.NewRGBA(image.Rect(0, 0, 64, 64)),
		image.NewRGBA(image.Rect(0, 0, 32, 32)),
	}
	err := enc.Encode(context.Background(), frames, 10, filepath.Join(t.TempDir(), "out.mp4"))
	if err == nil {
		t.Fatal("expected an error for mismatched frame sizes")
	}
}
