package entkit

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// FileError records a per-file failure during batch processing.
type FileError struct {
	Path string
	Err  error
}

// ProcessFiles applies fn to every matching file under the given paths.
// Directories are walked recursively, filtered by extension, and processed
// on a bounded worker pool with a progress bar; single files are processed
// directly regardless of extension. Failures are collected per file rather
// than aborting the batch.
func ProcessFiles(ctx context.Context, logger *zap.Logger, paths, extensions []string, fn func(path string) error) ([]FileError, error) {
	var failures []FileError
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return failures, err
		}
		if !info.IsDir() {
			if err := fn(path); err != nil {
				failures = append(failures, FileError{Path: path, Err: err})
			}
			continue
		}

		dirFailures, err := processDir(ctx, logger, path, extensions, fn)
		failures = append(failures, dirFailures...)
		if err != nil {
			return failures, err
		}
	}
	return failures, nil
}

func processDir(ctx context.Context, logger *zap.Logger, dir string, extensions []string, fn func(path string) error) ([]FileError, error) {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[ext] = true
	}

	var files []string
	err := filepath.Walk(dir, func(filePath string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fileInfo.IsDir() && exts[filepath.Ext(filePath)] {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription(dir),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	maxWorkers := runtime.NumCPU()
	sem := make(chan struct{}, maxWorkers)

	var mu sync.Mutex
	var failures []FileError
	var wg sync.WaitGroup

	for _, filePath := range files {
		select {
		case <-ctx.Done():
			wg.Wait()
			return failures, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(fp string) {
			defer func() {
				<-sem
				wg.Done()
			}()
			if err := fn(fp); err != nil {
				if logger != nil {
					logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
				}
				mu.Lock()
				failures = append(failures, FileError{Path: fp, Err: err})
				mu.Unlock()
			}
			bar.Add(1)
		}(filePath)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })
	return failures, nil
}
