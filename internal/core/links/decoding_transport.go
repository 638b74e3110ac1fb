package links

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const acceptEncoding = "gzip, deflate"

// decodingTransport advertises gzip and deflate and transparently decodes
// the response body. Setting Accept-Encoding disables net/http's built-in
// gzip handling, so both encodings are handled here.
type decodingTransport struct {
	base http.RoundTripper
}

func newDecodingTransport(base http.RoundTripper) *decodingTransport {
	return &decodingTransport{base: base}
}

func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	if encoding == "" || encoding == "identity" {
		return resp, nil
	}

	decoded, err := decodeBody(encoding, resp.Body)
	if err != nil {
		resp.Body.Close()

		return nil, err
	}

	if decoded == nil {
		return resp, nil
	}

	resp.Body = decoded
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true

	return resp, nil
}

// decodeBody returns nil for encodings it does not handle.
func decodeBody(encoding string, body io.ReadCloser) (io.ReadCloser, error) {
	switch encoding {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}

		return &decodedBody{Reader: zr, decoder: zr, body: body}, nil
	case "deflate":
		return newDeflateBody(body)
	default:
		return nil, nil
	}
}

// HTTP "deflate" is zlib-wrapped by the RFC, but some servers send raw deflate.
func newDeflateBody(body io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(body)

	header, err := br.Peek(2)
	if err == nil && isZlibHeader(header[0], header[1]) {
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zlib reader: %w", err)
		}

		return &decodedBody{Reader: zr, decoder: zr, body: body}, nil
	}

	fr := flate.NewReader(br)

	return &decodedBody{Reader: fr, decoder: fr, body: body}, nil
}

func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

type decodedBody struct {
	io.Reader
	decoder io.Closer
	body    io.Closer
}

func (d *decodedBody) Close() error {
	decErr := d.decoder.Close()
	if err := d.body.Close(); err != nil {
		return err
	}

	return decErr
}
