// Package textutil turns raw file bytes into text that is safe to draw in a
// terminal.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	xunicode "golang.org/x/text/encoding/unicode"
)

// Fallback decoders, tried in order when detection is not confident.
var fallbacks = []encoding.Encoding{
	charmap.Windows1252,
	charmap.ISO8859_15,
	japanese.ShiftJIS,
	japanese.EUCJP,
	korean.EUCKR,
	simplifiedchinese.GBK,
	traditionalchinese.Big5,
}

// Decode returns data as UTF-8. Valid UTF-8 (with or without a BOM) is
// returned as-is; anything else goes through charset detection, then the
// fallback decoders, then byte-wise replacement.
func Decode(data []byte) string {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff")
	}
	if s, ok := decodeBOM(data); ok {
		return s
	}

	minConfidence := 30
	if len(data) > 50 {
		minConfidence = 50
	}
	if res, err := chardet.NewTextDetector().DetectBest(data); err == nil && res.Confidence >= minConfidence {
		if enc := EncodingByName(res.Charset); enc != nil {
			if s, ok := tryDecode(enc, data); ok {
				return s
			}
		}
	}

	for _, enc := range fallbacks {
		if s, ok := tryDecode(enc, data); ok {
			return s
		}
	}
	return strings.ToValidUTF8(string(data), "\ufffd")
}

func decodeBOM(data []byte) (string, bool) {
	if len(data) < 2 {
		return "", false
	}
	var enc encoding.Encoding
	switch {
	case data[0] == 0xFF && data[1] == 0xFE:
		enc = xunicode.UTF16(xunicode.LittleEndian, xunicode.ExpectBOM)
	case data[0] == 0xFE && data[1] == 0xFF:
		enc = xunicode.UTF16(xunicode.BigEndian, xunicode.ExpectBOM)
	default:
		return "", false
	}
	return tryDecode(enc, data)
}

func tryDecode(enc encoding.Encoding, data []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}

// EncodingByName returns the decoder for an IANA charset name as reported
// by chardet, or nil if unsupported.
func EncodingByName(name string) encoding.Encoding {
	switch strings.ToLower(name) {
	case "windows-1252", "cp1252":
		return charmap.Windows1252
	case "iso-8859-1", "latin1":
		// C1 bytes in "Latin-1" text are nearly always cp1252 punctuation
		return charmap.Windows1252
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15
	case "iso-8859-2", "latin2":
		return charmap.ISO8859_2
	case "windows-1251":
		return charmap.Windows1251
	case "koi8-r":
		return charmap.KOI8R
	case "shift_jis", "sjis":
		return japanese.ShiftJIS
	case "euc-jp":
		return japanese.EUCJP
	case "iso-2022-jp":
		return japanese.ISO2022JP
	case "euc-kr":
		return korean.EUCKR
	case "gb2312", "gbk", "gb-18030", "gb18030":
		return simplifiedchinese.GB18030
	case "big5":
		return traditionalchinese.Big5
	case "utf-16le":
		return xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM)
	case "utf-16be":
		return xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM)
	default:
		return nil
	}
}

// StripControl removes control characters other than newline and tab, so
// file content cannot emit escape sequences into the viewer. CRLF line
// endings become LF.
func StripControl(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// Displayable decodes data and strips control characters.
func Displayable(data []byte) string {
	return StripControl(Decode(data))
}
