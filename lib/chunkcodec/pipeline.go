// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package chunkcodec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/strata-data/strata/lib/dataset"
)

// Pipeline applies codecs in order on encode and in reverse on
// decode. The conventional shape puts compression first and the AEAD
// codec last, so ciphertext (which does not compress) is the final
// layer and everything beneath it is authenticated.
type Pipeline struct {
	codecs []Codec
}

// NewPipeline composes codecs into a pipeline. At least one codec is
// required: an empty pipeline would pass chunks through untouched,
// and a storage layer that believes it is encrypting must not fall
// open on a hollow configuration.
func NewPipeline(codecs ...Codec) (*Pipeline, error) {
	if len(codecs) == 0 {
		return nil, dataset.Errorf(dataset.KindMisconfigured, "pipeline has no codecs")
	}
	return &Pipeline{codecs: codecs}, nil
}

// BuildPipeline constructs every configured codec and composes them.
func BuildPipeline(configs []Config) (*Pipeline, error) {
	codecs := make([]Codec, 0, len(configs))
	for i, config := range configs {
		codec, err := Build(config)
		if err != nil {
			return nil, dataset.Errorf(dataset.KindMisconfigured,
				"pipeline entry %d: %w", i, err)
		}
		codecs = append(codecs, codec)
	}
	return NewPipeline(codecs...)
}

// ParsePipelineConfig parses a JSONC array of codec configurations.
// Comments and trailing commas are stripped; unknown fields are
// rejected, which keeps key material out of persisted configuration
// by construction.
func ParsePipelineConfig(data []byte) ([]Config, error) {
	stripped := jsonc.ToJSON(data)

	decoder := json.NewDecoder(bytes.NewReader(stripped))
	decoder.DisallowUnknownFields()
	var configs []Config
	if err := decoder.Decode(&configs); err != nil {
		return nil, dataset.Errorf(dataset.KindMisconfigured, "parsing pipeline config: %w", err)
	}
	return configs, nil
}

// LoadPipeline reads a JSONC pipeline file and builds it.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dataset.Errorf(dataset.KindMisconfigured, "reading pipeline file: %w", err)
	}
	configs, err := ParsePipelineConfig(data)
	if err != nil {
		return nil, dataset.Errorf(dataset.KindMisconfigured, "%s: %w", path, err)
	}
	pipeline, err := BuildPipeline(configs)
	if err != nil {
		return nil, dataset.Errorf(dataset.KindMisconfigured, "%s: %w", path, err)
	}
	return pipeline, nil
}

// Encode runs data through every codec in order. The error kind of a
// failing codec survives the added context.
func (p *Pipeline) Encode(data []byte) ([]byte, error) {
	var err error
	for _, codec := range p.codecs {
		data, err = codec.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("codec %s: %w", codec.ID(), err)
		}
	}
	return data, nil
}

// Decode runs a frame back through every codec in reverse order.
func (p *Pipeline) Decode(frame []byte) ([]byte, error) {
	var err error
	for i := len(p.codecs) - 1; i >= 0; i-- {
		codec := p.codecs[i]
		frame, err = codec.Decode(frame, nil)
		if err != nil {
			return nil, fmt.Errorf("codec %s: %w", codec.ID(), err)
		}
	}
	return frame, nil
}

// String renders the pipeline as its codec identifiers in encode
// order, for logs.
func (p *Pipeline) String() string {
	ids := make([]string, len(p.codecs))
	for i, codec := range p.codecs {
		ids[i] = codec.ID()
	}
	return strings.Join(ids, " | ")
}
