package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/nahuelp/clipstack/internal/config"
	"github.com/nahuelp/clipstack/internal/domain"
	"github.com/nahuelp/clipstack/internal/logger"
)

// minSubtitleLen is the minimum length of a usable subtitle transcript
// after cleanup.
const minSubtitleLen = 50

// Acquisition methods persisted on the record.
const (
	MethodExisting  = "existing"
	MethodSubtitles = "subtitles"
	MethodWhisper   = "whisper"
)

// Acquisition is the outcome of the transcript fallback chain for one
// record. An empty Text is a degraded-signal condition, not an error.
type Acquisition struct {
	Text       string
	Method     string
	UploadDate *time.Time
	Elapsed    time.Duration
}

// Acquirer obtains a transcript for a record via a fallback chain:
// reuse an existing transcript, fetch native subtitles, then download
// audio and transcribe it locally.
type Acquirer struct {
	ytdlp           string
	whisperBin      string
	modelDir        string
	modelSize       string
	language        string
	workDir         string
	subtitleLangs   []string
	downloadTimeout time.Duration
	runner          commandRunner
}

// NewAcquirer constructs the production acquirer.
// Parameters:
//   - whisper: local transcription engine configuration.
//   - media: download tooling configuration.
// Returns:
//   - *Acquirer: acquirer executing real subprocesses.
func NewAcquirer(whisper *config.WhisperConfig, media *config.MediaConfig) *Acquirer {
	return &Acquirer{
		ytdlp:           media.YtdlpBinary,
		whisperBin:      whisper.Binary,
		modelDir:        whisper.ModelDir,
		modelSize:       whisper.Model,
		language:        whisper.Language,
		workDir:         media.WorkDir,
		subtitleLangs:   media.SubtitleLangs,
		downloadTimeout: media.DownloadTimeout,
		runner:          &execRunner{},
	}
}

// SetModelSize overrides the transcription model size for one run.
func (a *Acquirer) SetModelSize(size string) {
	if size != "" {
		a.modelSize = size
	}
}

// Acquire resolves a transcript for the video. Each step's failure is a
// "no result" that advances the chain; only after all steps fail is an
// empty acquisition returned. Records missing an upload date get one
// fetched from metadata along the way, even when no transcript is found.
// Parameters:
//   - ctx: context bounding all subprocess calls.
//   - video: record to acquire a transcript for.
// Returns:
//   - Acquisition: transcript text, method, and side-channel metadata.
func (a *Acquirer) Acquire(ctx context.Context, video *domain.Video) Acquisition {
	start := time.Now()

	if video.HasTranscript && strings.TrimSpace(video.Transcript) != "" {
		return Acquisition{
			Text:    video.Transcript,
			Method:  MethodExisting,
			Elapsed: time.Since(start),
		}
	}

	acq := Acquisition{}
	if video.UploadDate == nil {
		acq.UploadDate = a.FetchUploadDate(ctx, video.URL)
	}

	workDir, err := os.MkdirTemp(a.workDir, "acquire-*")
	if err != nil {
		logger.CtxWarn(ctx, "cannot create acquisition workspace: %v", err)
		acq.Elapsed = time.Since(start)
		return acq
	}
	defer os.RemoveAll(workDir)

	// Native subtitles only exist on subtitle-capable platforms.
	if video.Source == domain.SourceYouTube {
		if text := a.fetchSubtitles(ctx, video.URL, workDir); text != "" {
			acq.Text = text
			acq.Method = MethodSubtitles
			acq.Elapsed = time.Since(start)
			return acq
		}
	}

	audioPath := a.downloadAudio(ctx, video.URL, workDir)
	if audioPath == "" {
		acq.Elapsed = time.Since(start)
		return acq
	}

	if text := a.transcribeAudio(ctx, audioPath, workDir); text != "" {
		acq.Text = text
		acq.Method = MethodWhisper
	}
	acq.Elapsed = time.Since(start)
	return acq
}

// FetchUploadDate retrieves the upload date for a URL via yt-dlp metadata.
// Parameters:
//   - ctx: context for cancellation.
//   - url: video URL.
// Returns:
//   - *time.Time: upload date, or nil when unavailable.
func (a *Acquirer) FetchUploadDate(ctx context.Context, url string) *time.Time {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := a.runner.Run(ctx, a.ytdlp,
		"--dump-json",
		"--no-download",
		"--quiet",
		"--no-warnings",
		url,
	)
	if err != nil || result.Stdout == "" {
		return nil
	}

	var meta struct {
		UploadDate string `json:"upload_date"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &meta); err != nil {
		return nil
	}
	if len(meta.UploadDate) != 8 {
		return nil
	}
	date, err := time.Parse("20060102", meta.UploadDate)
	if err != nil {
		return nil
	}
	return &date
}

// fetchSubtitles tries pre-existing subtitles in language/quality
// preference order: manual then auto-generated, per configured language.
// The first non-trivial cleaned result wins.
func (a *Acquirer) fetchSubtitles(ctx context.Context, url, workDir string) string {
	langs := a.subtitleLangs
	if len(langs) == 0 {
		langs = []string{"es", "en"}
	}

	for _, lang := range langs {
		for _, auto := range []bool{false, true} {
			subCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
			writeFlag := "--write-subs"
			if auto {
				writeFlag = "--write-auto-subs"
			}
			_, err := a.runner.Run(subCtx, a.ytdlp,
				"--skip-download",
				writeFlag,
				"--sub-langs", lang,
				"--sub-format", "vtt",
				"-o", filepath.Join(workDir, "subtitle"),
				"--quiet",
				"--no-warnings",
				url,
			)
			cancel()
			if err != nil {
				continue
			}

			text := a.readSubtitleFile(workDir)
			if len(text) > minSubtitleLen {
				logger.CtxInfo(ctx, "found %s subtitles (lang=%s, auto=%v)", MethodSubtitles, lang, auto)
				return text
			}
		}
	}
	return ""
}

// readSubtitleFile finds and cleans the first downloaded .vtt file.
func (a *Acquirer) readSubtitleFile(workDir string) string {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".vtt") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(workDir, entry.Name()))
		if err != nil {
			continue
		}
		if text := CleanVTT(string(content)); text != "" {
			return text
		}
	}
	return ""
}

// downloadAudio extracts the audio track for local transcription.
// Returns the audio file path or "" when nothing was downloaded.
func (a *Acquirer) downloadAudio(ctx context.Context, url, workDir string) string {
	ctx, cancel := context.WithTimeout(ctx, a.downloadTimeout)
	defer cancel()

	outPath := filepath.Join(workDir, "audio.m4a")
	_, err := a.runner.Run(ctx, a.ytdlp,
		"-x",
		"--audio-format", "m4a",
		"--audio-quality", "0",
		"-o", outPath,
		"--quiet",
		"--no-warnings",
		url,
	)
	if err != nil {
		return ""
	}

	if _, err := os.Stat(outPath); err == nil {
		return outPath
	}

	// yt-dlp sometimes keeps the source container extension.
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		for _, ext := range []string{".m4a", ".mp3", ".webm", ".opus", ".wav"} {
			if strings.HasSuffix(entry.Name(), ext) {
				return filepath.Join(workDir, entry.Name())
			}
		}
	}
	return ""
}

// transcribeAudio runs the local whisper.cpp engine over a downloaded
// audio file and reads the exported transcript.
func (a *Acquirer) transcribeAudio(ctx context.Context, audioPath, workDir string) string {
	textBase := filepath.Join(workDir, "transcript")

	args := []string{
		"-m", a.modelPath(),
		"-f", audioPath,
		"-of", textBase,
		"-otxt",
	}
	if a.language != "" {
		args = append(args, "-l", a.language)
	}

	if _, err := a.runner.Run(ctx, a.whisperBin, args...); err != nil {
		return ""
	}

	content, err := os.ReadFile(textBase + ".txt")
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(string(content))
	if len(text) <= minCleanedLen {
		return ""
	}
	return text
}

// modelPath resolves the model file for the configured size.
func (a *Acquirer) modelPath() string {
	return filepath.Join(a.modelDir, fmt.Sprintf("ggml-%s.bin", a.modelSize))
}

// CheckReady verifies the transcription engine can run: the whisper
// binary is on PATH and the model file for the configured size exists.
// Parameters:
//   - ctx: unused, kept for symmetry with other collaborator checks.
// Returns:
//   - error: non-nil if the engine cannot be used.
func (a *Acquirer) CheckReady(ctx context.Context) error {
	if _, err := exec.LookPath(a.ytdlp); err != nil {
		return fmt.Errorf("yt-dlp binary %q not found: %w", a.ytdlp, err)
	}
	if _, err := exec.LookPath(a.whisperBin); err != nil {
		return fmt.Errorf("whisper binary %q not found: %w", a.whisperBin, err)
	}
	if _, err := os.Stat(a.modelPath()); err != nil {
		return fmt.Errorf("whisper model %q not found: %w", a.modelPath(), err)
	}
	return nil
}

// NewAcquirerForTests constructs an acquirer with an injected runner.
func NewAcquirerForTests(whisper *config.WhisperConfig, media *config.MediaConfig, runner commandRunner) *Acquirer {
	a := NewAcquirer(whisper, media)
	a.runner = runner
	return a
}
