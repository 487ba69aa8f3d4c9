// Command upload sends image files to a running photo API from the terminal.
//
//	upload [--server URL] [--timeout 2m] photo1.jpg photo2.png ...
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/photobridge/service/internal/uploadform"
)

func main() {
	server := pflag.StringP("server", "s", envOr("PHOTO_API_URL", "http://localhost:8080"), "base URL of the photo API")
	timeout := pflag.DurationP("timeout", "t", 2*time.Minute, "overall upload timeout")
	exclude := pflag.IntSliceP("exclude", "x", nil, "drop the file at this position (0-based) before uploading; repeatable")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] FILE...\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	files := make([]uploadform.File, 0, pflag.NArg())
	for _, path := range pflag.Args() {
		f, err := uploadform.FileFromPath(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, err)
			continue
		}
		files = append(files, f)
	}

	previews := uploadform.NewRegistry()
	client := uploadform.NewClient(strings.TrimRight(*server, "/")+"/photos", &http.Client{})
	form := uploadform.New(previews, client)
	form.Select(files)

	// Remove from the highest index down so earlier positions stay valid.
	drop := append([]int(nil), *exclude...)
	sort.Sort(sort.Reverse(sort.IntSlice(drop)))
	for i, idx := range drop {
		if i > 0 && drop[i-1] == idx {
			continue
		}
		form.Remove(idx)
	}

	selected := form.State()
	if len(selected.Files) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to upload")
		os.Exit(1)
	}
	for i, f := range selected.Files {
		fmt.Printf("  [%d] %s (%d bytes)\n", i, f.Name, f.Size)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	form.Upload(ctx)

	result := form.State()
	fmt.Println(result.Message)
	for _, p := range result.Uploaded {
		fmt.Printf("  %s  %s\n", p.Filename, p.URL)
	}
	if len(result.Uploaded) == 0 {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
