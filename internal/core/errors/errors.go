// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Link resolution errors.
var (
	// ErrShortLinkUnresolved indicates a short link could not be followed to a final URL.
	ErrShortLinkUnresolved = errors.New("short link could not be resolved")

	// ErrNoValidLink indicates the text contains no recognized post URL.
	ErrNoValidLink = errors.New("no valid link found")
)

// Fetch errors.
var (
	// ErrHTTPStatusNotOK indicates an HTTP response with a non-success status code.
	ErrHTTPStatusNotOK = errors.New("HTTP status not OK")

	// ErrTooManyRedirects indicates too many HTTP redirects.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates a response body exceeded the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")
)

// Scraping errors.
var (
	// ErrAssetNotFound indicates no recognized asset markup was found in a page.
	ErrAssetNotFound = errors.New("asset not found in page")
)

// Delivery errors.
var (
	// ErrDeliveryFailed indicates the chat transport rejected an outgoing message.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// Video-quality workflow errors.
var (
	// ErrNoFormats indicates a video has no downloadable muxed formats.
	ErrNoFormats = errors.New("no downloadable formats")

	// ErrInvalidSelection indicates a quality selection that does not match the offered list.
	ErrInvalidSelection = errors.New("invalid selection")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
