package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/targa"
	"github.com/urfave/cli/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const defaultDB = "targa.db"

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

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	for _, file := range c.Args().Slice() {
		img, err := targa.OpenFile(file)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		spec := img.Spec()
		fmt.Printf("%s: %dx%d, %d-bit color, alpha %t, %s origin\n", file, spec.Width, spec.Height, spec.ColorDepth, spec.HasAlpha, spec.Origin)

		if c.Bool("digest") {
			digest, err := img.Digest()
			if err != nil {
				img.Close()
				return cli.NewExitError(err, 1)
			}
			fmt.Printf("\tdigest %s\n", digest)
		}

		img.Close()
	}

	return nil
}

func invert(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	in, err := targa.OpenFile(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer in.Close()

	out, err := targa.CreateFile(c.Args().Get(1), in.Spec())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer out.Close()

	if err := in.EachRowRGBA(func(row [][4]uint8, y int) error {
		for x := range row {
			row[x][0] = 255 - row[x][0]
			row[x][1] = 255 - row[x][1]
			row[x][2] = 255 - row[x][2]
		}
		return out.PutRowRGBA(y, row)
	}); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func average(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	var inputs []*targa.Image
	defer func() {
		for _, img := range inputs {
			img.Close()
		}
	}()

	var spec targa.Spec
	for i, file := range c.Args().Slice()[1:] {
		img, err := targa.OpenFile(file)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		inputs = append(inputs, img)

		s := img.Spec()
		if i == 0 {
			spec = s
		} else if s.Width != spec.Width || s.Height != spec.Height {
			return cli.NewExitError(fmt.Errorf("%s is %dx%d, want %dx%d", file, s.Width, s.Height, spec.Width, spec.Height), 1)
		}
	}

	out, err := targa.CreateFile(c.Args().First(), spec)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer out.Close()

	sums := make([][4]int, spec.Width)
	row := make([][4]uint8, spec.Width)
	for y := 0; y < spec.Height; y++ {
		for x := range sums {
			sums[x] = [4]int{}
		}
		for _, img := range inputs {
			r, err := img.RowRGBA(y)
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			for x, p := range r {
				sums[x][0] += int(p[0])
				sums[x][1] += int(p[1])
				sums[x][2] += int(p[2])
				sums[x][3] += int(p[3])
			}
		}
		for x, s := range sums {
			n := len(inputs)
			row[x] = [4]uint8{uint8(s[0] / n), uint8(s[1] / n), uint8(s[2] / n), uint8(s[3] / n)}
		}
		if err := out.PutRowRGBA(y, row); err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	return nil
}

func convert(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	in, err := os.Open(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer in.Close()

	m, _, err := image.Decode(in)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	out, err := os.Create(c.Args().Get(1))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer out.Close()

	if err := targa.Encode(out, m, c.Int("depth"), c.Bool("alpha")); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func export(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	in, err := os.Open(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer in.Close()

	m, err := targa.Decode(in)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	out, err := os.Create(c.Args().Get(1))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer out.Close()

	if err := png.Encode(out, m); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func scan(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	catalog, err := targa.NewCatalog(c.String("db"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer catalog.Close()

	s := targa.NewScanner(catalog, newLogger(c))
	if err := s.Scan(c.Args().First()); err != nil {
		return cli.NewExitError(err, 1)
	}

	duplicates, err := catalog.Duplicates()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for digest, paths := range duplicates {
		fmt.Printf("%s:\n", digest)
		for _, path := range paths {
			fmt.Printf("\t%s\n", path)
		}
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "targa"
	app.Usage = "Targa image utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"TARGA_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
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
			Usage:     "Print the layout of one or more images",
			ArgsUsage: "FILE...",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "digest",
					Usage: "also print the pixel digest",
				},
			},
			Action: info,
		},
		{
			Name:      "invert",
			Usage:     "Invert the colors of an image, row by row",
			ArgsUsage: "INPUT OUTPUT",
			Action:    invert,
		},
		{
			Name:      "average",
			Usage:     "Average several equally-sized images, row by row",
			ArgsUsage: "OUTPUT INPUT...",
			Action:    average,
		},
		{
			Name:      "convert",
			Usage:     "Convert a PNG, JPEG, GIF, BMP, TIFF or WebP image to Targa",
			ArgsUsage: "INPUT OUTPUT",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "depth",
					Value: 24,
					Usage: "color depth of the output",
				},
				&cli.BoolFlag{
					Name:  "alpha",
					Usage: "keep the alpha channel",
				},
			},
			Action: convert,
		},
		{
			Name:      "export",
			Usage:     "Convert a Targa image to PNG",
			ArgsUsage: "INPUT OUTPUT",
			Action:    export,
		},
		{
			Name:      "scan",
			Usage:     "Catalog every Targa image under a directory and report duplicates",
			ArgsUsage: "DIRECTORY",
			Action:    scan,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
