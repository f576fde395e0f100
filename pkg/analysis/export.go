package analysis

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"lensdist/pkg/sip"
)

// WriteKeywords encodes SIP keywords as an ordered YAML mapping.
func WriteKeywords(w io.Writer, kws []sip.Keyword) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, kw := range kws {
		value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(kw.Value, 'g', -1, 64)}
		if strings.HasSuffix(kw.Name, "_ORDER") {
			value.Tag = "!!int"
			value.Value = strconv.Itoa(int(kw.Value))
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: kw.Name},
			value,
		)
	}

	enc := yaml.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "error encoding SIP keywords")
	}
	return enc.Close()
}

// ReadKeywords decodes a file written by WriteKeywords.
func ReadKeywords(r io.Reader) (map[string]float64, error) {
	out := make(map[string]float64)
	if err := yaml.NewDecoder(r).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "error decoding SIP keywords")
	}
	return out, nil
}

func writeKeywordsFile(path string, kws []sip.Keyword) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create SIP file")
	}
	if err := WriteKeywords(f, kws); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
