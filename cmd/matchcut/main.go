package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/AmiXDme/text-match-cut/internal/config"
	"github.com/AmiXDme/text-match-cut/internal/engine"
	"github.com/AmiXDme/text-match-cut/internal/system"
	"github.com/AmiXDme/text-match-cut/internal/textsource"
	"github.com/AmiXDme/text-match-cut/internal/video"
)

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// API-ключи AI-провайдеров берутся из окружения / .env
	_ = godotenv.Load()

	configPtr := flag.String("config", "", "Путь к YAML-конфигурации (флаги имеют приоритет)")
	textPtr := flag.String("text", "", "Фраза подсветки (по умолчанию: Mother of Dragons)")
	widthPtr := flag.Int("width", 0, "Ширина кадра (256-4096)")
	heightPtr := flag.Int("height", 0, "Высота кадра (256-4096)")
	fpsPtr := flag.Int("fps", 0, "FPS (1-60)")
	durationPtr := flag.Int("duration", 0, "Длительность видео в секундах (1-60)")
	blurTypePtr := flag.String("blur", "", "Тип размытия: gaussian, radial, none")
	blurRadiusPtr := flag.Float64("blur-radius", -1, "Радиус размытия")
	highlightColorPtr := flag.String("highlight-color", "", "Цвет подсветки (hex или имя)")
	textColorPtr := flag.String("text-color", "", "Цвет текста")
	bgColorPtr := flag.String("bg-color", "", "Цвет фона")
	fontDirPtr := flag.String("fonts", "", "Папка со шрифтами .ttf/.otf")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется в output/)")
	aiPtr := flag.Bool("ai", false, "Генерировать текст через AI-провайдера")
	providerPtr := flag.String("ai-provider", "", "AI-провайдер: mistral, gemini, random")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто)")

	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPtr != "" {
		cfg, err = config.Load(*configPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка конфигурации: %v", err)
		}
	} else {
		cfg = config.Default()
	}

	// Флаги перекрывают конфигурацию
	if *textPtr != "" {
		cfg.HighlightedText = *textPtr
	}
	if *widthPtr > 0 {
		cfg.Width = *widthPtr
	}
	if *heightPtr > 0 {
		cfg.Height = *heightPtr
	}
	if *fpsPtr > 0 {
		cfg.FPS = *fpsPtr
	}
	if *durationPtr > 0 {
		cfg.DurationSeconds = *durationPtr
	}
	if *blurTypePtr != "" {
		cfg.BlurType = *blurTypePtr
	}
	if *blurRadiusPtr >= 0 {
		cfg.BlurRadius = *blurRadiusPtr
	}
	if *highlightColorPtr != "" {
		cfg.HighlightColor = *highlightColorPtr
	}
	if *textColorPtr != "" {
		cfg.TextColor = *textColorPtr
	}
	if *bgColorPtr != "" {
		cfg.BackgroundColor = *bgColorPtr
	}
	if *fontDirPtr != "" {
		cfg.FontDir = *fontDirPtr
	}
	if *outputPtr != "" {
		cfg.OutputVideo = *outputPtr
	}
	if *aiPtr {
		cfg.AIEnabled = true
	}
	if *providerPtr != "" {
		cfg.AIProvider = *providerPtr
	}
	if *qualityPtr > 0 {
		cfg.Quality = *qualityPtr
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	// Доступность AI определяется один раз на старте
	avail := textsource.Probe()
	fmt.Printf("[*] Mistral доступен: %v | Gemini доступен: %v\n",
		avail.MistralAvailable(), avail.GeminiAvailable())
	src := avail.Select(cfg.AIEnabled, cfg.AIProvider)

	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", cfg.VideoEncoder)
		}
	}
	if cfg.Quality == 0 {
		switch cfg.VideoEncoder {
		case "h264_videotoolbox":
			cfg.Quality = 75
		case "h264_nvenc":
			cfg.Quality = 28
		default:
			cfg.Quality = 23
		}
	}
	if cfg.Threads == 0 {
		cfg.Threads = system.EncoderThreads()
	}

	enc := &video.FFmpegEncoder{
		EncoderName: cfg.VideoEncoder,
		Quality:     cfg.Quality,
		Threads:     cfg.Threads,
	}

	project, err := engine.NewProject(cfg, src, enc)
	if err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	outPath, err := project.Run(context.Background())
	if err != nil {
		log.Fatalf("[-] Ошибка генерации: %v", err)
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", outPath)
}
