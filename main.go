package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/config"
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/output"
	"github.com/df07/go-weekend-raytracer/pkg/publish"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

// stdoutPath selects a PPM stream on stdout instead of a file
const stdoutPath = "-"

// errHelp is returned after -help output has been printed
var errHelp = errors.New("help requested")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the command line settings that are not part of config.Config
type options struct {
	envFile string
	publish bool
	list    bool
	help    bool
}

// parseArgs loads the configuration and applies every flag given explicitly on top of it
func parseArgs(args []string, stderr io.Writer) (config.Config, options, error) {
	var opts options
	flags := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	flags.SetOutput(stderr)

	sceneName := flags.String("scene", "default", "Scene to render (see -list)")
	width := flags.Int("width", 0, "Image width in pixels (0 keeps the scene default)")
	samples := flags.Int("samples", 0, "Samples per pixel (0 keeps the scene default)")
	depth := flags.Int("depth", 0, "Maximum bounce depth (0 keeps the scene default)")
	workers := flags.Int("workers", 0, "Render workers (0 uses every CPU)")
	seed := flags.Int64("seed", renderer.DefaultSeed, "Base random seed")
	out := flags.String("o", "", "Output path; the extension picks the format, '-' writes PPM to stdout")
	thumbnail := flags.Int("thumbnail", 0, "Also write a PNG thumbnail with this longest edge (0 disables)")
	flags.StringVar(&opts.envFile, "env", config.DefaultEnvFile, "Optional .env file with RT_* and S3_* settings")
	flags.BoolVar(&opts.publish, "publish", false, "Upload the render to S3 after rendering")
	flags.BoolVar(&opts.list, "list", false, "List available scenes")
	flags.BoolVar(&opts.help, "help", false, "Show help information")

	if err := flags.Parse(args); err != nil {
		return config.Config{}, opts, err
	}

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return config.Config{}, opts, err
	}

	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.Scene = *sceneName
		case "width":
			cfg.Width = *width
		case "samples":
			cfg.Samples = *samples
		case "depth":
			cfg.MaxDepth = *depth
		case "workers":
			cfg.Workers = *workers
		case "seed":
			cfg.Seed = *seed
		case "o":
			cfg.Output = *out
		case "thumbnail":
			cfg.Thumbnail = *thumbnail
		}
	})

	if opts.help {
		fmt.Fprintln(stderr, "Weekend Raytracer")
		fmt.Fprintln(stderr, "Usage: raytracer [options]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		flags.PrintDefaults()
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Output will be saved to output/<scene>/render_<timestamp>.png unless -o is given")
	}

	return cfg, opts, nil
}

// run parses args and renders one frame. Progress goes to stderr so stdout
// can carry the image.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	if opts.help {
		return errHelp
	}
	if opts.list {
		listScenes(stdout)
		return nil
	}

	logger := renderer.NewWriterLogger(stderr)

	sceneObj, err := scene.Create(cfg.Scene, renderer.CameraConfig{
		Width:           cfg.Width,
		SamplesPerPixel: cfg.Samples,
		MaxDepth:        cfg.MaxDepth,
	})
	if err != nil {
		return err
	}
	if err := sceneObj.CameraConfig.Validate(); err != nil {
		return fmt.Errorf("scene %s: %w", sceneObj.Name, err)
	}

	integ, ok := sceneObj.NewIntegrator()
	if !ok {
		return fmt.Errorf("scene %s uses unknown integrator %q", sceneObj.Name, sceneObj.Integrator)
	}

	outputPath := cfg.Output
	if outputPath == "" {
		outputPath = defaultOutputPath(sceneObj.Name, time.Now())
	}

	sink, collector, err := createSink(outputPath, cfg.Thumbnail, stdout)
	if err != nil {
		return err
	}

	raytracer := renderer.NewRaytracer(sceneObj.Camera(), integ, renderer.RenderConfig{
		NumWorkers: cfg.Workers,
		Seed:       cfg.Seed,
	}, logger)

	stats, renderErr := raytracer.Render(ctx, sceneObj.World, sink)
	closeErr := sink.Close()
	if renderErr != nil {
		return fmt.Errorf("rendering %s: %w", sceneObj.Name, renderErr)
	}
	if closeErr != nil {
		return fmt.Errorf("writing %s: %w", outputPath, closeErr)
	}

	logger.Printf("Render completed in %v (%.0f samples/s, %d workers)\n",
		stats.Duration, stats.SamplesPerSecond(), stats.NumWorkers)
	if outputPath == stdoutPath {
		return nil
	}
	logger.Printf("Render saved as %s\n", outputPath)

	uploads := []string{outputPath}
	if collector != nil {
		thumbPath := thumbnailPath(outputPath)
		if err := writeThumbnail(thumbPath, collector, uint(cfg.Thumbnail)); err != nil {
			return err
		}
		logger.Printf("Thumbnail saved as %s\n", thumbPath)
		uploads = append(uploads, thumbPath)
	}

	if opts.publish {
		return publishFiles(ctx, cfg.S3, sceneObj.Name, uploads, logger)
	}
	return nil
}

// createSink opens the sink for path, teeing into an image collector when a
// thumbnail is requested
func createSink(path string, thumbnail int, stdout io.Writer) (output.Sink, *output.ImageSink, error) {
	if path == stdoutPath {
		return output.NewPPMSink(stdout), nil, nil
	}

	fileSink, err := output.CreateFileSink(path)
	if err != nil {
		return nil, nil, err
	}
	if thumbnail <= 0 {
		return fileSink, nil, nil
	}

	collector := output.NewImageCollector()
	return output.NewMultiSink(fileSink, collector), collector, nil
}

func writeThumbnail(path string, collector *output.ImageSink, maxEdge uint) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating thumbnail: %w", err)
	}
	if err := output.WriteThumbnail(file, collector.Image(), maxEdge); err != nil {
		file.Close()
		return fmt.Errorf("writing thumbnail: %w", err)
	}
	return file.Close()
}

func publishFiles(ctx context.Context, cfg config.S3Config, sceneName string, paths []string, logger core.Logger) error {
	publisher, err := publish.NewPublisher(cfg, logger)
	if err != nil {
		return err
	}
	for _, path := range paths {
		url, err := publisher.UploadFile(ctx, path, sceneName)
		if err != nil {
			return err
		}
		logger.Printf("Published %s\n", url)
	}
	return nil
}

func listScenes(w io.Writer) {
	for _, group := range scene.ListAllScenes().Groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			fmt.Fprintf(w, "  %-18s %s\n", info.ID, info.Description)
		}
	}
}

// defaultOutputPath returns output/<scene>/render_<timestamp>.png
func defaultOutputPath(sceneName string, now time.Time) string {
	timestamp := now.Format("20060102_150405")
	return filepath.Join("output", sceneName, fmt.Sprintf("render_%s.png", timestamp))
}

// thumbnailPath returns path with its extension replaced by _thumb.png
func thumbnailPath(path string) string {
	base := strings.TrimSuffix(path, ".gz")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "_thumb.png"
}
