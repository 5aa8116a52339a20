package render

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/san-kum/bungeesim/internal/jump"
)

// ImageDir keeps only the latest published chart in a directory, which is
// what the web front end serves.
type ImageDir struct {
	dir  string
	opts Options
	mu   sync.Mutex
}

func NewImageDir(dir string, opts Options) *ImageDir {
	return &ImageDir{dir: dir, opts: opts}
}

func (d *ImageDir) Dir() string { return d.dir }

// Publish removes previously published PNGs and writes the chart of res
// under a timestamped name, which it returns.
func (d *ImageDir) Publish(res *jump.Result) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("render: create image dir: %w", err)
	}

	old, err := filepath.Glob(filepath.Join(d.dir, "*.png"))
	if err != nil {
		return "", err
	}
	for _, path := range old {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("render: remove old image: %w", err)
		}
	}

	name := fmt.Sprintf("%d.png", time.Now().UnixNano())
	f, err := os.Create(filepath.Join(d.dir, name))
	if err != nil {
		return "", fmt.Errorf("render: create image: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := WritePNG(bw, res, d.opts); err != nil {
		return "", err
	}
	if err := bw.Flush(); err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}
