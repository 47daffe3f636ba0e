package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DefaultEncoding writes UTF-8 with a byte order mark so spreadsheet
// applications keep accented characters.
const DefaultEncoding = "utf-8-sig"

const utf8BOM = "\xef\xbb\xbf"

// WriteCSV serializes the whole table to w in the named encoding
// ("utf-8-sig", "utf-8" or "latin-1").
func WriteCSV(w io.Writer, t Table, enc string) error {
	out, err := encodingWriter(w, enc)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	if tw, ok := out.(*transform.Writer); ok {
		return tw.Close()
	}
	return nil
}

// Bytes serializes the table into memory.
func Bytes(t Table, enc string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t, enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodingWriter(w io.Writer, enc string) (io.Writer, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8-sig":
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return nil, fmt.Errorf("write bom: %w", err)
		}
		return w, nil
	case "utf-8", "utf8":
		return w, nil
	case "latin-1", "latin1", "iso-8859-1":
		return transform.NewWriter(w, encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())), nil
	}
	return nil, fmt.Errorf("unsupported export encoding %q", enc)
}
