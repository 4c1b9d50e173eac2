package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/AmiXDme/text-match-cut/internal/compositor"
	"github.com/AmiXDme/text-match-cut/internal/config"
	"github.com/AmiXDme/text-match-cut/internal/fontlib"
	"github.com/AmiXDme/text-match-cut/internal/layout"
	"github.com/AmiXDme/text-match-cut/internal/textsource"
	"github.com/AmiXDme/text-match-cut/internal/video"
)

// FrameExhaustionError — ни один шрифт не смог отрисовать кадр в пределах
// бюджета попыток. Фатально для всего запроса: молча укороченное видео
// хуже явного отказа.
type FrameExhaustionError struct {
	Frame    int
	Attempts int
}

func (e *FrameExhaustionError) Error() string {
	return fmt.Sprintf("кадр %d не удалось сгенерировать за %d попыток подбора шрифта", e.Frame, e.Attempts)
}

// FrameFunc генерирует один кадр по сниппету и пути к шрифту.
type FrameFunc func(snippet *textsource.Snippet, fontPath string) (*image.RGBA, error)

// Project — конвейер одного запроса генерации видео. Состояние (пул
// сниппетов, набор отказавших шрифтов) живёт только внутри Run и не
// разделяется между запросами.
type Project struct {
	Config  *config.Config
	Source  textsource.Source
	Fonts   *fontlib.Provider
	Encoder video.Encoder

	// Render подменяется в тестах; по умолчанию — полный конвейер
	// шрифт -> геометрия -> композитор.
	Render FrameFunc

	fallback *textsource.RandomSource
	rng      *rand.Rand
}

func NewProject(cfg *config.Config, src textsource.Source, enc video.Encoder) (*Project, error) {
	colors, blur, err := effectParams(cfg)
	if err != nil {
		return nil, err
	}
	p := &Project{
		Config:   cfg,
		Source:   src,
		Fonts:    fontlib.NewProvider(),
		Encoder:  enc,
		fallback: textsource.NewRandomSource(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	p.Render = func(snippet *textsource.Snippet, fontPath string) (*image.RGBA, error) {
		handle, err := fontlib.Load(fontPath, cfg.FontSize())
		if err != nil {
			return nil, err
		}
		defer handle.Close()

		geom, err := layout.Compute(snippet.Lines, snippet.HighlightIndex, cfg.HighlightedText,
			handle, cfg.Width, cfg.Height, cfg.VerticalSpread)
		if err != nil {
			return nil, err
		}
		return compositor.Composite(snippet.Lines, snippet.HighlightIndex, cfg.HighlightedText,
			handle, geom, colors, blur)
	}
	return p, nil
}

func effectParams(cfg *config.Config) (compositor.Colors, compositor.BlurConfig, error) {
	var colors compositor.Colors
	var err error
	if colors.Text, err = config.ParseColor(cfg.TextColor); err != nil {
		return colors, compositor.BlurConfig{}, err
	}
	if colors.Background, err = config.ParseColor(cfg.BackgroundColor); err != nil {
		return colors, compositor.BlurConfig{}, err
	}
	if colors.Highlight, err = config.ParseColor(cfg.HighlightColor); err != nil {
		return colors, compositor.BlurConfig{}, err
	}
	blur := compositor.BlurConfig{
		Type:        cfg.BlurType,
		Radius:      cfg.BlurRadius,
		SharpFactor: cfg.RadialSharpFactor,
	}
	return colors, blur, nil
}

// Run выполняет запрос целиком: пул сниппетов, покадровая генерация в
// строгом порядке, кодирование. Возвращает путь к готовому видео.
func (p *Project) Run(ctx context.Context) (string, error) {
	fontPaths, err := fontlib.ListFontFiles(p.Config.FontDir)
	if err != nil {
		return "", fmt.Errorf("поиск шрифтов в %s: %w", p.Config.FontDir, err)
	}
	if len(fontPaths) == 0 {
		fmt.Printf("[!] В %s нет шрифтов, используется встроенный fallback\n", p.Config.FontDir)
	} else {
		fmt.Printf("[*] Найдено шрифтов: %d\n", len(fontPaths))
	}

	pool, err := p.buildSnippetPool()
	if err != nil {
		return "", err
	}
	fmt.Printf("[*] Пул сниппетов: %d (источник: %s)\n", len(pool), p.Source.Name())

	totalFrames := p.Config.TotalFrames()
	fmt.Printf("[*] Видео: %dx%d @ %d FPS, %d сек (%d кадров), шрифт %dpx\n",
		p.Config.Width, p.Config.Height, p.Config.FPS, p.Config.DurationSeconds,
		totalFrames, p.Config.FontSize())

	frames, failedFonts, err := p.generateFrames(pool, fontPaths, totalFrames)
	if err != nil {
		return "", err
	}

	outPath := p.Config.OutputVideo
	if outPath == "" {
		if err := os.MkdirAll("output", 0755); err != nil {
			return "", fmt.Errorf("создание каталога output: %w", err)
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		outPath = filepath.Join("output", fmt.Sprintf("text_match_cut_%s.mp4", timestamp))
	}

	fmt.Printf("[*] Кодирование в %s...\n", outPath)
	if err := p.Encoder.Encode(ctx, frames, p.Config.FPS, outPath); err != nil {
		return "", err
	}

	if len(failedFonts) > 0 {
		fmt.Println("[!] Шрифты с ошибками за время генерации:")
		for f := range failedFonts {
			fmt.Printf("    - %s\n", filepath.Base(f))
		}
	}
	return outPath, nil
}

// buildSnippetPool наполняет пул с бюджетом 4x попыток на размер пула.
// После половины бюджета ненадёжный источник понижается до случайного
// генератора, который не умеет отказывать.
func (p *Project) buildSnippetPool() ([]*textsource.Snippet, error) {
	target := p.Config.PoolSize
	if target < 1 {
		target = 1
	}
	maxAttempts := target * 4

	var pool []*textsource.Snippet
	var src textsource.Source = p.Source
	demoted := false
	for attempts := 0; len(pool) < target && attempts < maxAttempts; attempts++ {
		snippet, err := src.Generate(p.Config.HighlightedText, p.Config.MinLines, p.Config.MaxLines)
		if err != nil {
			fmt.Printf("[!] Источник %s: %v\n", src.Name(), err)
			if attempts+1 > maxAttempts/2 && !demoted {
				fmt.Println("[!] Источник отказывает повторно, переход на случайный текст")
				src = p.fallback
				demoted = true
			} else {
				time.Sleep(500 * time.Millisecond)
			}
			continue
		}
		pool = append(pool, snippet)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("не удалось сгенерировать ни одного текстового сниппета")
	}
	return pool, nil
}

// generateFrames формирует кадры строго по порядку. Набор отказавших
// шрифтов накапливается на весь запрос, чтобы не пробовать их повторно.
func (p *Project) generateFrames(pool []*textsource.Snippet, fontPaths []string, totalFrames int) ([]*image.RGBA, map[string]struct{}, error) {
	maxRetries := p.Config.MaxFontRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	frames := make([]*image.RGBA, 0, totalFrames)
	failedFonts := make(map[string]struct{})
	progressStep := totalFrames / 10
	if progressStep < 1 {
		progressStep = 1
	}

	for frameNum := 0; frameNum < totalFrames; frameNum++ {
		snippet := pool[p.rng.Intn(len(pool))]

		var frame *image.RGBA
		for retries := 0; retries < maxRetries; retries++ {
			fontPath, err := p.Fonts.Resolve(fontPaths, failedFonts)
			if err != nil {
				// Исчерпаны все кандидаты вместе со встроенным fallback.
				break
			}
			img, err := p.Render(snippet, fontPath)
			if err == nil {
				frame = img
				break
			}
			if !recoverable(err) {
				return nil, nil, fmt.Errorf("кадр %d: %w", frameNum+1, err)
			}
			fmt.Printf("[!] Шрифт %s не подошёл для кадра %d: %v\n", filepath.Base(fontPath), frameNum+1, err)
			failedFonts[fontPath] = struct{}{}
		}
		if frame == nil {
			// Бюджет попыток исчерпан кандидатами. Прежде чем сдаваться,
			// одна принудительная попытка со встроенным шрифтом.
			if _, bad := failedFonts[fontlib.FallbackName]; !bad {
				fmt.Printf("[!] Кандидаты исчерпаны для кадра %d, принудительная попытка встроенного шрифта\n", frameNum+1)
				img, err := p.Render(snippet, fontlib.FallbackName)
				switch {
				case err == nil:
					frame = img
				case !recoverable(err):
					return nil, nil, fmt.Errorf("кадр %d: %w", frameNum+1, err)
				default:
					failedFonts[fontlib.FallbackName] = struct{}{}
				}
			}
		}
		if frame == nil {
			return nil, nil, &FrameExhaustionError{Frame: frameNum + 1, Attempts: maxRetries}
		}

		frames = append(frames, frame)
		if (frameNum+1)%progressStep == 0 || frameNum+1 == totalFrames {
			fmt.Printf("[>] Кадры: %d/%d\n", frameNum+1, totalFrames)
		}
	}
	return frames, failedFonts, nil
}

// recoverable отличает ошибки уровня "попробуй другой шрифт" от фатальных.
func recoverable(err error) bool {
	var loadErr *fontlib.LoadError
	var drawErr *layout.DrawError
	return errors.As(err, &loadErr) || errors.As(err, &drawErr)
}
