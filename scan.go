package targa

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Digest hashes every pixel row from the top down and returns the result as
// a fixed-width hex string. Two images with the same visual content produce
// the same digest even when their on-disk row order differs.
func (img *Image) Digest() (string, error) {
	h := xxhash.New()
	buf := make([]byte, img.rowSize())
	for y := 0; y < img.res.height; y++ {
		if err := img.readRow(y, buf); err != nil {
			return "", err
		}
		h.Write(buf)
	}
	return fmt.Sprintf("%016X", h.Sum64()), nil
}

// Scanner walks directory trees cataloging every Targa image it can open.
type Scanner struct {
	catalog *Catalog
	logger  *log.Logger
}

// NewScanner returns a Scanner recording into catalog. Files that cannot be
// opened or decoded are logged and skipped rather than aborting the scan.
func NewScanner(catalog *Catalog, logger *log.Logger) *Scanner {
	return &Scanner{
		catalog: catalog,
		logger:  logger,
	}
}

func (s *Scanner) findImages(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() {
				return nil
			}

			if filepath.Ext(file) != ".tga" {
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

func (s *Scanner) imageWorker(ctx context.Context, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			img, err := OpenFile(file)
			if err != nil {
				s.logger.Printf("Skipping \"%s\": %v\n", file, err)
				continue
			}

			spec := img.Spec()
			digest, err := img.Digest()
			img.Close()
			if err != nil {
				s.logger.Printf("Skipping \"%s\": %v\n", file, err)
				continue
			}

			if err := s.catalog.Set(file, spec, digest); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
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

// Scan walks the tree rooted at path and records every readable Targa image
// in the catalog.
func (s *Scanner) Scan(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := s.findImages(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < 10; i++ {
		errc, err := s.imageWorker(ctx, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
