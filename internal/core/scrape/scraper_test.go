package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternScraperExtractImageURL(t *testing.T) {
	scraper := NewPatternScraper("", "")

	tests := []struct {
		name   string
		html   string
		want   string
		wantOK bool
	}{
		{
			name:   "474x rewritten to originals",
			html:   `<div><img alt="x" src="https://i.pinimg.com/474x/ab/cd/ef.jpg"></div>`,
			want:   "https://i.pinimg.com/originals/ab/cd/ef.jpg",
			wantOK: true,
		},
		{
			name:   "236x rewritten to originals",
			html:   `<img src='https://i.pinimg.com/236x/11/22/33.png' />`,
			want:   "https://i.pinimg.com/originals/11/22/33.png",
			wantOK: true,
		},
		{
			name:   "originals unchanged",
			html:   `<img src="https://i.pinimg.com/originals/ab/cd/ef.jpg">`,
			want:   "https://i.pinimg.com/originals/ab/cd/ef.jpg",
			wantOK: true,
		},
		{
			name:   "other sizes unchanged",
			html:   `<img src="https://i.pinimg.com/736x/ab/cd/ef.jpg">`,
			want:   "https://i.pinimg.com/736x/ab/cd/ef.jpg",
			wantOK: true,
		},
		{
			name:   "first match wins",
			html:   `<img src="https://i.pinimg.com/474x/first.jpg"><img src="https://i.pinimg.com/474x/second.jpg">`,
			want:   "https://i.pinimg.com/originals/first.jpg",
			wantOK: true,
		},
		{
			name: "image on another host",
			html: `<img src="https://example.com/474x/a.jpg">`,
		},
		{
			name: "no img tag",
			html: `<html><body><p>https://i.pinimg.com/474x/a.jpg</p></body></html>`,
		},
		{
			name: "empty",
			html: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := scraper.ExtractImageURL(tt.html)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatternScraperExtractVideoURL(t *testing.T) {
	scraper := NewPatternScraper("", "")

	tests := []struct {
		name   string
		html   string
		want   string
		wantOK bool
	}{
		{
			name:   "video source",
			html:   `<video autoplay src="https://v.pinimg.com/videos/mc/720p/aa/bb.mp4"></video>`,
			want:   "https://v.pinimg.com/videos/mc/720p/aa/bb.mp4",
			wantOK: true,
		},
		{
			name:   "single quotes",
			html:   `<video src='https://v.pinimg.com/videos/x.m3u8'>`,
			want:   "https://v.pinimg.com/videos/x.m3u8",
			wantOK: true,
		},
		{
			name:   "no rewriting for videos",
			html:   `<video src="https://v.pinimg.com/474x/x.mp4">`,
			want:   "https://v.pinimg.com/474x/x.mp4",
			wantOK: true,
		},
		{
			name: "image only page",
			html: `<img src="https://i.pinimg.com/474x/a.jpg">`,
		},
		{
			name: "video on another host",
			html: `<video src="https://cdn.example.com/a.mp4">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := scraper.ExtractVideoURL(tt.html)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatternScraperCustomHosts(t *testing.T) {
	scraper := NewPatternScraper("img.test", "vid.test")

	got, ok := scraper.ExtractImageURL(`<img src="https://img.test/474x/a.jpg">`)
	assert.True(t, ok)
	assert.Equal(t, "https://img.test/originals/a.jpg", got)

	_, ok = scraper.ExtractImageURL(`<img src="https://i.pinimg.com/474x/a.jpg">`)
	assert.False(t, ok)

	// Dots in the host are literal.
	_, ok = scraper.ExtractVideoURL(`<video src="https://vidxtest/a.mp4">`)
	assert.False(t, ok)

	got, ok = scraper.ExtractVideoURL(`<video src="https://vid.test/a.mp4">`)
	assert.True(t, ok)
	assert.Equal(t, "https://vid.test/a.mp4", got)
}

func TestUpgradeImageURLIdempotent(t *testing.T) {
	once := UpgradeImageURL("https://i.pinimg.com/236x/a/b.jpg")
	assert.Equal(t, once, UpgradeImageURL(once))
}
