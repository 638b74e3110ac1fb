// Package scrape finds direct media URLs in fetched post pages.
//
// Matching is deliberately narrow: the first tag whose src points at the
// configured CDN host wins. Pages that hide media behind scripts yield nothing.
package scrape

import (
	"fmt"
	"regexp"
	"strings"
)

// Default CDN hosts for post images and videos.
const (
	DefaultImageHost = "i.pinimg.com"
	DefaultVideoHost = "v.pinimg.com"
)

const originalsSegment = "/originals/"

// Size-bucketed image path segments that have a full-resolution twin.
var thumbnailSegments = []string{"/236x/", "/474x/"}

// Scraper extracts media URLs and page metadata from post HTML.
type Scraper interface {
	ExtractImageURL(html string) (string, bool)
	ExtractVideoURL(html string) (string, bool)
	ExtractPageMeta(html, pageURL string) PageMeta
}

// PatternScraper matches media tags with regular expressions.
type PatternScraper struct {
	imagePattern *regexp.Regexp
	videoPattern *regexp.Regexp
}

// NewPatternScraper builds a scraper for the given CDN hosts.
// Empty hosts fall back to the defaults.
func NewPatternScraper(imageHost, videoHost string) *PatternScraper {
	if imageHost == "" {
		imageHost = DefaultImageHost
	}

	if videoHost == "" {
		videoHost = DefaultVideoHost
	}

	return &PatternScraper{
		imagePattern: tagSourcePattern("img", imageHost),
		videoPattern: tagSourcePattern("video", videoHost),
	}
}

func tagSourcePattern(tag, host string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`<%s.*?src=["'](https://%s/[^"']+)["']`, tag, regexp.QuoteMeta(host)))
}

// ExtractImageURL returns the first image on the CDN host, rewritten to the
// original-resolution path.
func (s *PatternScraper) ExtractImageURL(html string) (string, bool) {
	match := s.imagePattern.FindStringSubmatch(html)
	if match == nil {
		return "", false
	}

	return UpgradeImageURL(match[1]), true
}

// ExtractVideoURL returns the first video source on the CDN host unchanged.
func (s *PatternScraper) ExtractVideoURL(html string) (string, bool) {
	match := s.videoPattern.FindStringSubmatch(html)
	if match == nil {
		return "", false
	}

	return match[1], true
}

// UpgradeImageURL replaces thumbnail size segments with /originals/.
// URLs already pointing at originals are returned as is.
func UpgradeImageURL(imageURL string) string {
	for _, segment := range thumbnailSegments {
		imageURL = strings.ReplaceAll(imageURL, segment, originalsSegment)
	}

	return imageURL
}
