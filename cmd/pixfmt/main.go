package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/pixfmt"
	"github.com/bodgit/pixfmt/batch"
	"github.com/bodgit/pixfmt/codec"
	"github.com/bodgit/pixfmt/convert"
	"github.com/bodgit/pixfmt/store"
	"github.com/urfave/cli/v2"
)

const defaultDB = "pixfmt.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func parseModel(c *cli.Context) (pixfmt.ColorModel, error) {
	if !c.IsSet("model") {
		return batch.KeepModel, nil
	}
	return pixfmt.ParseColorModel(c.String("model"))
}

func parseFormat(c *cli.Context, file string) (codec.Format, error) {
	if c.IsSet("format") {
		return codec.ParseFormat(c.String("format"))
	}
	if file == "" {
		return "", nil
	}
	return codec.FormatFromPath(file)
}

func options(c *cli.Context) convert.Options {
	return convert.Options{
		Colors: c.Int("colors"),
		Dither: c.Bool("dither"),
	}
}

var conversionFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "format",
		Usage: "output format (png, bmp, tiff, raw)",
	},
	&cli.StringFlag{
		Name:  "model",
		Usage: "output color model (index, gray, rgb, rgba)",
	},
	&cli.IntFlag{
		Name:  "colors",
		Value: pixfmt.MaxPalette,
		Usage: "maximum palette size when converting to index",
	},
	&cli.BoolFlag{
		Name:  "dither",
		Usage: "dither when converting to index",
	},
}

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	for _, file := range c.Args().Slice() {
		r, f, err := codec.ReadFile(file)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Printf("%s: %s %s %dx%d", file, f, r.Model, r.Width, r.Height)
		if r.Model == pixfmt.Index {
			fmt.Printf(" %d colors", len(r.Palette))
		}
		fmt.Println()
	}

	return nil
}

func convertFile(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	in, out := c.Args().Get(0), c.Args().Get(1)

	logger := newLogger(c)

	model, err := parseModel(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	format, err := parseFormat(c, out)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	r, f, err := codec.ReadFile(in)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	logger.Printf("Read \"%s\" (%s, %s, %dx%d)\n", in, f, r.Model, r.Width, r.Height)

	if model != batch.KeepModel && model != r.Model {
		m, err := pixfmt.Decode(r)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		if m, err = convert.Convert(m, model, options(c)); err != nil {
			return cli.NewExitError(err, 1)
		}
		if r, err = pixfmt.Encode(m); err != nil {
			return cli.NewExitError(err, 1)
		}
		logger.Printf("Converted to %s\n", model)
	}

	if err := codec.WriteFile(out, r, format); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func batchConvert(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	model, err := parseModel(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	format, err := parseFormat(c, "")
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	b := batch.Converter{
		Format:  format,
		Model:   model,
		Options: options(c),
		Workers: c.Int("workers"),
		Logger:  newLogger(c),
	}

	if err := b.Run(context.Background(), c.Args().Get(0), c.Args().Get(1)); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func importFiles(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	s, err := store.Open(c.String("db"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.Close()

	for _, file := range c.Args().Slice() {
		r, _, err := codec.ReadFile(file)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		sha, err := s.PutRaster(r)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		logger.Printf("Imported \"%s\"\n", file)
		fmt.Println(sha)
	}

	return nil
}

func exportFile(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	sha, out := c.Args().Get(0), c.Args().Get(1)

	format, err := parseFormat(c, out)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	s, err := store.Open(c.String("db"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.Close()

	r, err := s.GetRaster(sha)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if r == nil {
		return cli.NewExitError(fmt.Sprintf("no image with SHA-1 %s", sha), 1)
	}

	if err := codec.WriteFile(out, r, format); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func list(c *cli.Context) error {
	s, err := store.Open(c.String("db"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.Close()

	records, err := s.List()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, r := range records {
		fmt.Printf("%s %s %dx%d\n", r.SHA1, r.Model, r.Width, r.Height)
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "pixfmt"
	app.Usage = "8-bit raster conversion utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"PIXFMT_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "Show format, color model and size of images",
			ArgsUsage: "FILE...",
			Action:    info,
		},
		{
			Name:      "convert",
			Usage:     "Convert an image to another format and/or color model",
			ArgsUsage: "INPUT OUTPUT",
			Flags:     conversionFlags,
			Action:    convertFile,
		},
		{
			Name:      "batch",
			Usage:     "Convert every image below a directory",
			ArgsUsage: "SOURCE DESTINATION",
			Flags: append([]cli.Flag{
				&cli.IntFlag{
					Name:  "workers",
					Value: 4,
					Usage: "number of images to convert at once",
				},
			}, conversionFlags...),
			Action: batchConvert,
		},
		{
			Name:      "import",
			Usage:     "Store images in the database",
			ArgsUsage: "FILE...",
			Action:    importFiles,
		},
		{
			Name:      "export",
			Usage:     "Write an image from the database to a file",
			ArgsUsage: "SHA1 OUTPUT",
			Flags:     conversionFlags[:1],
			Action:    exportFile,
		},
		{
			Name:   "list",
			Usage:  "List images in the database",
			Action: list,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
