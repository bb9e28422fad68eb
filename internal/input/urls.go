package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

var ErrInvalidURL = errors.New("invalid product URL")

// DefaultURLs is the product list used when nothing else is given.
var DefaultURLs = []string{
	"https://nomennescio.fi/products/405-short-blouse",
	"https://nomennescio.fi/products/303a-basic-blazer",
	"https://nomennescio.fi/products/304a-minimal-blazer",
	"https://nomennescio.fi/products/206a-loose-trousers",
	"https://nomennescio.fi/products/120-worker-jacket",
	"https://nomennescio.fi/products/715-merino-pants",
	"https://nomennescio.fi/products/gift-card",
	"https://nomennescio.fi/products/518-woollen-hoodie",
	"https://nomennescio.fi/products/154b-loose-parka-coat",
	"https://nomennescio.fi/products/311-light-field-jacket",
	"https://nomennescio.fi/products/401-basic-jersey-ecovero",
	"https://nomennescio.fi/products/407-standard-t-shirt",
	"https://nomennescio.fi/products/416-boxy-shirt-ecovero",
	"https://nomennescio.fi/products/736-sweat-pants",
	"https://nomennescio.fi/products/227-woollen-pants",
	"https://nomennescio.fi/products/739-zipper-sweat-hoodie",
	"https://nomennescio.fi/products/448-woollen-jersey",
	"https://nomennescio.fi/products/520-long-woollen-hoodie",
	"https://nomennescio.fi/products/312-long-worker-jacket",
	"https://nomennescio.fi/products/163-woollen-robe-jacket",
	"https://nomennescio.fi/products/117h-long-zipper-jacket",
	"https://nomennescio.fi/products/152-belted-woollen-coat-pre-order",
	"https://nomennescio.fi/products/161-basic-woollen-coat",
	"https://nomennescio.fi/products/162-raglan-woollen-jacket-pre-order",
	"https://nomennescio.fi/products/242-wide-woollen-pants",
	"https://nomennescio.fi/products/237-loose-pants",
	"https://nomennescio.fi/products/239-slim-pants-kopio",
	"https://nomennescio.fi/products/701-sweat-shirt",
	"https://nomennescio.fi/products/110d-robe-coat",
	"https://nomennescio.fi/products/160-long-woollen-coat",
	"https://nomennescio.fi/products/408-basic-t-shirt",
	"https://nomennescio.fi/products/241-pocket-pants",
	"https://nomennescio.fi/products/260-slim-jeans",
	"https://nomennescio.fi/products/261-loose-jeans",
	"https://nomennescio.fi/products/262-basic-jeans",
	"https://nomennescio.fi/products/263-wide-jeans",
	"https://nomennescio.fi/products/320-denim-jacket",
	"https://nomennescio.fi/products/321-raglan-denim-jacket",
	"https://nomennescio.fi/products/322-basic-denim-blazer",
	"https://nomennescio.fi/products/323-basic-denim-jacket",
	"https://nomennescio.fi/products/614-light-merino-beanie",
}

// Load returns the URLs to scrape. A file takes precedence over args, and
// DefaultURLs is used when both are empty. Order is preserved and
// duplicates are kept.
func Load(path string, args []string) ([]string, error) {
	var (
		urls []string
		err  error
	)

	switch {
	case path != "":
		urls, err = ReadFile(path)
		if err != nil {
			return nil, err
		}
	case len(args) > 0:
		urls = FromArgs(args)
	default:
		urls = append([]string(nil), DefaultURLs...)
	}

	if err := Validate(urls); err != nil {
		return nil, err
	}
	return urls, nil
}

func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads one URL per line. Blank lines and lines starting with # are
// skipped.
func Parse(r io.Reader) ([]string, error) {
	var urls []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan input: %w", err)
	}

	return urls, nil
}

// FromArgs treats every positional argument as one URL. Commas are part of
// the URL, never a separator.
func FromArgs(args []string) []string {
	var urls []string
	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" {
			urls = append(urls, arg)
		}
	}
	return urls
}

// Validate rejects anything that is not an absolute http(s) URL.
func Validate(urls []string) error {
	for i, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%w at position %d: %w", ErrInvalidURL, i+1, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w at position %d: %q is not an absolute http(s) URL", ErrInvalidURL, i+1, raw)
		}
	}
	return nil
}
