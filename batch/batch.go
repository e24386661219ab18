/*
Package batch converts every image below a directory, in parallel, to a
chosen file format and color model.
*/
package batch

import (
	"context"
	"errors"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/pixfmt"
	"github.com/bodgit/pixfmt/codec"
	"github.com/bodgit/pixfmt/convert"
)

// KeepModel leaves the color model of each image unchanged.
const KeepModel pixfmt.ColorModel = -1

const defaultWorkers = 4

// Converter holds the settings for a batch conversion.
type Converter struct {
	// Format of the written files, the source format if empty.
	Format codec.Format
	// Model to convert each image to, or KeepModel.
	Model   pixfmt.ColorModel
	Options convert.Options
	// Workers is the number of images converted at once.
	Workers int
	Logger  *log.Logger
}

func (c *Converter) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(ioutil.Discard, "", 0)
	}
	return c.Logger
}

func (c *Converter) findFiles(ctx context.Context, base, target string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories
			if file != base && info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Don't pick up our own output
			if info.Mode().IsDir() && file == target && file != base {
				return filepath.SkipDir
			}

			if !info.Mode().IsRegular() {
				return nil
			}

			if _, err := codec.FormatFromPath(file); err != nil {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (c *Converter) convertFile(src, dst string) error {
	r, format, err := codec.ReadFile(src)
	if err != nil {
		return err
	}

	if c.Model != KeepModel && c.Model != r.Model {
		m, err := pixfmt.Decode(r)
		if err != nil {
			return err
		}
		if m, err = convert.Convert(m, c.Model, c.Options); err != nil {
			return err
		}
		if r, err = pixfmt.Encode(m); err != nil {
			return err
		}
	}

	if c.Format != "" {
		format = c.Format
	}
	dst = strings.TrimSuffix(dst, filepath.Ext(dst)) + format.Extension()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	c.logger().Printf("Converting \"%s\" to \"%s\" (%s, %dx%d)\n", src, dst, r.Model, r.Width, r.Height)

	return codec.WriteFile(dst, r, format)
}

func (c *Converter) fileWorker(ctx context.Context, base, target string, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			select {
			case <-ctx.Done():
				return
			default:
			}

			rel, err := filepath.Rel(base, file)
			if err != nil {
				errc <- err
				return
			}

			if err := c.convertFile(file, filepath.Join(target, rel)); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

// waitForPipeline returns the first error from errs, cancelling the rest of
// the pipeline and waiting for every stage to finish before it returns.
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Run converts every supported image below src, writing the results to the
// same relative path below dst. The first error stops the conversion and is
// returned once every file already being converted has been written.
func (c *Converter) Run(ctx context.Context, src, dst string) error {
	if c.Model != KeepModel && !c.Model.Valid() {
		return pixfmt.ErrUnsupportedFormat
	}

	base, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	target, err := filepath.Abs(dst)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := c.findFiles(ctx, base, target)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	workers := c.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	for i := 0; i < workers; i++ {
		errc, err := c.fileWorker(ctx, base, target, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(cancelFunc, errcList...)
}
