package wire

import (
	"strings"

	"riskgate/internal/message"
	"riskgate/pkg/scanner"
)

// Stream protocol bytes: attributes are separated by SOH, messages are
// terminated by NUL. Values may contain neither.
const (
	SOH = 0x01
	NUL = 0x00
)

// Journal record bytes.
const (
	RecordSep = '|'
	RecordEnd = '\n'
)

// ParseAttrs splits a frame body (without the NUL terminator) into raw
// attributes. A trailing separator is tolerated: empty chunks are skipped.
func ParseAttrs(frame []byte, sep byte) message.Attrs {
	if len(frame) == 0 {
		return nil
	}
	var attrs message.Attrs
	for len(frame) > 0 {
		chunk, rest, found := scanner.CutByte(frame, sep)
		if found {
			frame = rest
		} else {
			frame = nil
		}
		if len(chunk) == 0 {
			continue
		}
		if key, value, hasValue := scanner.CutByte(chunk, '='); hasValue {
			attrs = append(attrs, message.Attr{Key: string(key), Value: string(value)})
		} else {
			attrs = append(attrs, message.Attr{Key: string(chunk)})
		}
	}
	return attrs
}

// AppendMessage encodes attributes for the stream protocol: every
// attribute followed by SOH, the whole message terminated by NUL. The tag
// attribute is emitted without '='.
func AppendMessage(dst []byte, attrs message.Attrs) []byte {
	for i, a := range attrs {
		dst = append(dst, a.Key...)
		if i > 0 {
			dst = append(dst, '=')
			dst = append(dst, a.Value...)
		}
		dst = append(dst, SOH)
	}
	return append(dst, NUL)
}

// AppendRecord encodes attributes as one journal line:
// Kind|key=value|...\n.
func AppendRecord(dst []byte, attrs message.Attrs) []byte {
	for i, a := range attrs {
		if i == 0 {
			dst = append(dst, a.Key...)
			continue
		}
		dst = append(dst, RecordSep)
		dst = append(dst, a.Key...)
		dst = append(dst, '=')
		dst = append(dst, a.Value...)
	}
	return append(dst, RecordEnd)
}

// ParseRecord splits one journal line (without the newline) into raw
// attributes.
func ParseRecord(line string) message.Attrs {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return nil
	}
	return ParseAttrs([]byte(line), RecordSep)
}
