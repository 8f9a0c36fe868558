// Package report renders per-file root records and appends them to a sink.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	json "github.com/goccy/go-json"
	"github.com/valyala/fasttemplate"
)

// ErrUnknownFormat is returned for a report format that is not supported.
var ErrUnknownFormat = errors.New("unknown report format")

// Record is the outcome of computing one file's root.
type Record struct {
	FileName      string  `json:"file_name" cbor:"file_name"`
	FileSizeBytes int64   `json:"file_size_bytes" cbor:"file_size_bytes"`
	MerkleRootHex string  `json:"merkle_root" cbor:"merkle_root"`
	ElapsedMs     float64 `json:"elapsed_ms" cbor:"elapsed_ms"`
}

// Format selects how records are written.
type Format string

const (
	// FormatText is the four-line human readable layout followed by a blank
	// line, compatible with existing output.txt reports.
	FormatText Format = "text"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
	// FormatCBOR writes a CBOR sequence, one map per record.
	FormatCBOR Format = "cbor"
)

// Validate reports whether f is a supported format.
func (f Format) Validate() error {
	switch f {
	case FormatText, FormatJSON, FormatCBOR:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

const textLayout = "File: {{name}}\n" +
	"File Size: {{size}} bytes\n" +
	"Merkle Root: {{root}}\n" +
	"Execution Time: {{elapsed}}ms\n" +
	"\n"

var textTemplate = fasttemplate.New(textLayout, "{{", "}}")

// Encode renders a single record in the given format.
func Encode(f Format, rec Record) ([]byte, error) {
	switch f {
	case FormatText:
		out := textTemplate.ExecuteString(map[string]interface{}{
			"name":    rec.FileName,
			"size":    strconv.FormatInt(rec.FileSizeBytes, 10),
			"root":    rec.MerkleRootHex,
			"elapsed": strconv.FormatFloat(rec.ElapsedMs, 'f', 2, 64),
		})
		return []byte(out), nil

	case FormatJSON:
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("Encode: json marshal error: %w", err)
		}
		return append(b, '\n'), nil

	case FormatCBOR:
		b, err := cbor.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("Encode: cbor marshal error: %w", err)
		}
		return b, nil

	default:
		return nil, f.Validate()
	}
}

// Decode reads back every record from a report written in format f.
// Text reports carry elapsed time rounded to two decimals.
func Decode(f Format, r io.Reader) ([]Record, error) {
	var recs []Record

	switch f {
	case FormatText:
		return decodeText(r)

	case FormatJSON:
		dec := json.NewDecoder(r)
		for {
			var rec Record
			if err := dec.Decode(&rec); err != nil {
				if err == io.EOF {
					return recs, nil
				}
				return nil, fmt.Errorf("Decode: json record %d: %w", len(recs), err)
			}
			recs = append(recs, rec)
		}

	case FormatCBOR:
		dec := cbor.NewDecoder(r)
		for {
			var rec Record
			if err := dec.Decode(&rec); err != nil {
				if err == io.EOF {
					return recs, nil
				}
				return nil, fmt.Errorf("Decode: cbor record %d: %w", len(recs), err)
			}
			recs = append(recs, rec)
		}

	default:
		return nil, f.Validate()
	}
}

var textPrefixes = [4]string{"File: ", "File Size: ", "Merkle Root: ", "Execution Time: "}

func decodeText(r io.Reader) ([]Record, error) {
	var (
		recs  []Record
		lines []string
	)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			if len(lines) == 0 {
				continue
			}
			rec, err := parseTextRecord(lines)
			if err != nil {
				return nil, fmt.Errorf("Decode: text record ending at line %d: %w", lineNo, err)
			}
			recs = append(recs, rec)
			lines = lines[:0]
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("Decode: read error: %w", err)
	}
	if len(lines) != 0 {
		return nil, fmt.Errorf("Decode: truncated text record at line %d", lineNo)
	}
	return recs, nil
}

func parseTextRecord(lines []string) (Record, error) {
	if len(lines) != len(textPrefixes) {
		return Record{}, fmt.Errorf("expected %d lines, got %d", len(textPrefixes), len(lines))
	}

	var fields [4]string
	for i, prefix := range textPrefixes {
		v, ok := strings.CutPrefix(lines[i], prefix)
		if !ok {
			return Record{}, fmt.Errorf("line %q: missing %q", lines[i], prefix)
		}
		fields[i] = v
	}

	size, err := strconv.ParseInt(strings.TrimSuffix(fields[1], " bytes"), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("file size: %w", err)
	}
	elapsed, err := strconv.ParseFloat(strings.TrimSuffix(fields[3], "ms"), 64)
	if err != nil {
		return Record{}, fmt.Errorf("execution time: %w", err)
	}

	return Record{
		FileName:      fields[0],
		FileSizeBytes: size,
		MerkleRootHex: fields[2],
		ElapsedMs:     elapsed,
	}, nil
}
