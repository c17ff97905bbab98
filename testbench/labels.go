// Package testbench reads test case labels out of Digital circuit files.
package testbench

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

const (
	testcaseElement = "Testcase"
	labelKey        = "Label"
)

type visualElement struct {
	ElementName string `xml:"elementName"`
	Attributes  struct {
		Entries []entry `xml:"entry"`
	} `xml:"elementAttributes"`
}

// entry is a key/value pair serialized as consecutive child elements,
// e.g. <string>Label</string><string>test_1</string>.
type entry struct {
	Children []entryChild `xml:",any"`
}

type entryChild struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

// label returns the value of a "Label" entry.
func (e entry) label() (string, bool) {
	if len(e.Children) < 1 || e.Children[0].XMLName.Local != "string" || e.Children[0].Text != labelKey {
		return "", false
	}
	if len(e.Children) < 2 || e.Children[1].XMLName.Local != "string" {
		// The key matched, so this entry still ends the search for its element.
		return "", true
	}
	return e.Children[1].Text, true
}

// ExtractLabels returns the labels of all Testcase elements in document order.
// A malformed document yields an empty slice; the failure is logged.
func ExtractLabels(r io.Reader, logger zerolog.Logger) []string {
	labels, err := extract(r, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read test bench")
		return []string{}
	}
	return labels
}

// ExtractLabelsFile is ExtractLabels for a file on disk.
func ExtractLabelsFile(path string, logger zerolog.Logger) []string {
	f, err := os.Open(path)
	if err != nil {
		logger.Error().Err(err).Str("file", path).Msg("Failed to open test bench")
		return []string{}
	}
	defer f.Close()

	return ExtractLabels(f, logger.With().Str("file", path).Logger())
}

func extract(r io.Reader, logger zerolog.Logger) ([]string, error) {
	decoder := xml.NewDecoder(r)
	labels := []string{}
	sawRoot := false

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse xml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if start.Name.Local != "visualElement" {
			continue
		}

		var element visualElement
		if err := decoder.DecodeElement(&element, &start); err != nil {
			return nil, fmt.Errorf("failed to parse visual element: %w", err)
		}
		if element.ElementName != testcaseElement {
			continue
		}

		for _, e := range element.Attributes.Entries {
			value, found := e.label()
			if !found {
				continue
			}
			if value == "" {
				logger.Warn().Msg("Skipping test case with an empty label")
			} else {
				labels = append(labels, value)
			}
			// first Label entry wins
			break
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("failed to parse xml: document is empty")
	}
	return labels, nil
}
