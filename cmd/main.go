package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/chenBenjamin97/social-distance/pkg/api"
	"github.com/chenBenjamin97/social-distance/pkg/config"
	"github.com/chenBenjamin97/social-distance/pkg/store"
	"github.com/chenBenjamin97/social-distance/pkg/video"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const configFlag = "config"

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	app := &cli.App{
		Name:  "social-distance",
		Usage: "flag people standing too close to each other in a video",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configFlag,
				Value: ".",
				Usage: "directory holding config.yaml",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serveAction,
			},
			{
				Name:      "analyze",
				Usage:     "analyze a video and write the annotated copy",
				ArgsUsage: "<video>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "annotated video path, defaults to the 'ready' directory",
					},
				},
				Action: analyzeAction,
			},
			{
				Name:      "calibrate",
				Usage:     "pick the 4 calibration points of a video",
				ArgsUsage: "<video>",
				Action:    calibrateAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error: Got '%v'", err)
	}
}

//setup reads the configuration and creates missing directories from it
func setup(c *cli.Context) (*config.Settings, error) {
	s, err := config.Load(c.String(configFlag))
	if err != nil {
		return nil, errors.Wrap(err, "could not read config file")
	}

	for _, dir := range s.AllDirectories() {
		if _, err := os.Stat(dir); err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0766); err != nil {
					log.Printf("Error Creating '%s' directory, got '%v'", dir, err)
				}
			}
		}
	}

	return s, nil
}

func openStore(s *config.Settings) (*store.DB, error) {
	if err := os.MkdirAll(filepath.Dir(s.Store.Path), 0766); err != nil {
		return nil, err
	}
	return store.NewDB(s.Store.Path)
}

func videoArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.Errorf("expected exactly one video, got %d arguments", c.NArg())
	}
	return c.Args().First(), nil
}

func serveAction(c *cli.Context) error {
	s, err := setup(c)
	if err != nil {
		return err
	}

	db, err := openStore(s)
	if err != nil {
		return err
	}
	defer db.Close()

	color.New(color.FgGreen, color.Bold).Printf("social-distance listening on :%s\n", s.HTTP.Port)

	r := api.SetRouter(s, db, func(videoName string) {
		video.Tag(s, db, videoName)
	})
	return r.Run(":" + s.HTTP.Port)
}

func analyzeAction(c *cli.Context) error {
	srcVideoPath, err := videoArg(c)
	if err != nil {
		return err
	}

	s, err := setup(c)
	if err != nil {
		return err
	}

	db, err := openStore(s)
	if err != nil {
		return err
	}
	defer db.Close()

	name := filepath.Base(srcVideoPath)
	output := c.String("output")
	if output == "" {
		output = filepath.Join(s.Directory.Ready, config.BaseName(name)+"."+s.Video.ProdFormat)
	}

	color.New(color.FgCyan).Printf("Analyzing '%s' (%.0fcm apart)\n", srcVideoPath, s.Distance.Physical)

	res, err := video.Analyze(s, db, video.Job{
		Name:       name,
		SourcePath: srcVideoPath,
		OutputPath: output,
		Input:      os.Stdin,
	})
	if err != nil {
		return err
	}

	color.New(color.FgGreen, color.Bold).Printf("Done: %d frames, ", res.ProcessedFrames)
	if res.OverlapFrames > 0 {
		color.New(color.FgRed, color.Bold).Printf("%d with people too close\n", res.OverlapFrames)
	} else {
		color.New(color.FgGreen, color.Bold).Println("nobody too close")
	}
	color.New(color.FgWhite).Printf("Output: %s\nRun: %s\n", res.OutputPath, res.RunID)

	return nil
}

func calibrateAction(c *cli.Context) error {
	srcVideoPath, err := videoArg(c)
	if err != nil {
		return err
	}

	s, err := setup(c)
	if err != nil {
		return err
	}

	name := filepath.Base(srcVideoPath)
	quad, err := video.CalibrateVideo(s, name, srcVideoPath, os.Stdin)
	if err != nil {
		return err
	}

	color.New(color.FgGreen, color.Bold).Printf("Calibration of '%s' saved to %s\n", name, s.CalibrationPath(name))
	for i, pt := range quad.Points() {
		color.New(color.FgWhite).Printf("  %s (%.1f, %.1f)\n", cornerNames[i], pt.X, pt.Y)
	}

	return nil
}

var cornerNames = [4]string{"top left    ", "top right   ", "bottom right", "bottom left "}
