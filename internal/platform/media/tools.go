package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yungbote/paperdeck-backend/internal/platform/ctxutil"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

// Tools is the glue around system binaries used for podcast audio.
//
// REQUIRED BINARIES in the runtime:
// - a TTS engine (espeak-ng by default, override with TTS_BIN)
// - ffmpeg for silence generation, concatenation and mp3 encoding
//
// Synchronous and deterministic; callers hold the request for the duration.
type Tools interface {
	AssertReady(ctx context.Context) error

	// SynthesizeSpeech renders one dialogue line to a WAV file.
	SynthesizeSpeech(ctx context.Context, text string, voice string, outPath string) (string, error)

	// ConcatAudio joins WAV segments with a fixed pause between them and
	// encodes the result as MP3 at outPath.
	ConcatAudio(ctx context.Context, segments []string, pause time.Duration, outPath string) (string, error)
}

type tools struct {
	log *logger.Logger

	ttsPath    string
	ffmpegPath string

	workRoot string

	defaultTimeout time.Duration
}

func New(log *logger.Logger) Tools {
	ttsPath := strings.TrimSpace(os.Getenv("TTS_BIN"))
	if ttsPath == "" {
		ttsPath = "espeak-ng"
	}
	return &tools{
		log:            log.With("service", "MediaTools"),
		ttsPath:        ttsPath,
		ffmpegPath:     "ffmpeg",
		workRoot:       filepath.Join(os.TempDir(), "paperdeck-media"),
		defaultTimeout: 5 * time.Minute,
	}
}

func (m *tools) AssertReady(ctx context.Context) error {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, bin := range []string{m.ttsPath, m.ffmpegPath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("missing required binary %q in PATH: %w", bin, err)
		}
	}
	if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
		return fmt.Errorf("create workRoot: %w", err)
	}
	return nil
}

func (m *tools) SynthesizeSpeech(ctx context.Context, text string, voice string, outPath string) (string, error) {
	ctx = ctxutil.Default(ctx)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text required")
	}
	if outPath == "" {
		return "", fmt.Errorf("outPath required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir out dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.defaultTimeout)
	defer cancel()

	args := []string{"-w", outPath}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, m.ttsPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tts failed: %w; out=%s", err, string(out))
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("tts produced no output at %s", outPath)
	}
	return outPath, nil
}

func (m *tools) ConcatAudio(ctx context.Context, segments []string, pause time.Duration, outPath string) (string, error) {
	ctx = ctxutil.Default(ctx)
	if len(segments) == 0 {
		return "", fmt.Errorf("no segments to concatenate")
	}
	if outPath == "" {
		return "", fmt.Errorf("outPath required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir out dir: %w", err)
	}
	if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
		return "", fmt.Errorf("mkdir workRoot: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.defaultTimeout)
	defer cancel()

	silencePath := ""
	if pause > 0 {
		p, err := m.makeSilence(ctx, pause)
		if err != nil {
			m.log.Warn("silence generation failed, concatenating without pauses", "error", err)
		} else {
			silencePath = p
		}
	}

	listPath := filepath.Join(m.workRoot, fmt.Sprintf("concat_%d.txt", time.Now().UnixNano()))
	var list strings.Builder
	for i, seg := range segments {
		abs, err := filepath.Abs(seg)
		if err != nil {
			return "", fmt.Errorf("resolve segment path %q: %w", seg, err)
		}
		fmt.Fprintf(&list, "file '%s'\n", abs)
		if silencePath != "" && i < len(segments)-1 {
			fmt.Fprintf(&list, "file '%s'\n", silencePath)
		}
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return "", fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	cmd := exec.CommandContext(ctx, m.ffmpegPath,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-acodec", "libmp3lame",
		"-q:a", "4",
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg concat failed: %w; out=%s", err, string(out))
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("ffmpeg produced no output at %s", outPath)
	}
	return outPath, nil
}

func (m *tools) makeSilence(ctx context.Context, d time.Duration) (string, error) {
	path := filepath.Join(m.workRoot, fmt.Sprintf("silence_%dms.wav", d.Milliseconds()))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	cmd := exec.CommandContext(ctx, m.ffmpegPath,
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=22050:cl=mono",
		"-t", fmt.Sprintf("%.3f", d.Seconds()),
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg silence failed: %w; out=%s", err, string(out))
	}
	return path, nil
}
