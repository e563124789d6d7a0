package mirror

import "bytes"

// NormalizeLF rewrites CRLF line endings to LF
func NormalizeLF(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}

// NormalizeCRLF rewrites LF line endings to CRLF. Content that already uses
// CRLF passes through unchanged: the doubled CR produced by the first
// rewrite is collapsed again.
func NormalizeCRLF(content []byte) []byte {
	out := bytes.ReplaceAll(content, []byte("\n"), []byte("\r\n"))
	return bytes.ReplaceAll(out, []byte("\r\r"), []byte("\r"))
}
