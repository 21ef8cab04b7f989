// Package config loads measurement shapes from YAML.
//
// A shape file describes one record shape: its header options and the list of
// measurements a template holds.
//
//	name: pulse-oximeter
//	header:
//	  timestamp: true
//	  person_id: 1
//	measurements:
//	  - name: spo2
//	    kind: numeric
//	    type: 0x4BB8
//	    unit: 0x0220
//	  - name: pleth
//	    kind: rtsa
//	    type: 0x4BB4
//	    sample_bits: 12
//	    max_samples: 50
//	    period: "0.02"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Shape is one record shape.
type Shape struct {
	Name         string        `yaml:"name"`
	Header       Header        `yaml:"header"`
	Measurements []Measurement `yaml:"measurements"`
}

// Header holds the header options of a shape.
type Header struct {
	Timestamp         bool    `yaml:"timestamp"`
	PersonID          *uint16 `yaml:"person_id"`
	Duration          bool    `yaml:"duration"`
	SupplementalTypes int     `yaml:"supplemental_types"`
	References        int     `yaml:"references"`
	AVAs              AVAs    `yaml:"avas"`
	BigEndian         bool    `yaml:"big_endian"`
	GroupID           uint16  `yaml:"group_id"`
}

// AVAs reserves an attribute-value list.
type AVAs struct {
	Max      int `yaml:"max"`
	ValueCap int `yaml:"value_cap"`
}

// Extras reserves the optional regions of one measurement.
type Extras struct {
	SupplementalTypes int  `yaml:"supplemental_types"`
	References        int  `yaml:"references"`
	Duration          bool `yaml:"duration"`
	AVAs              AVAs `yaml:"avas"`
}

// Element is one complex compound element.
type Element struct {
	Type uint32 `yaml:"type"`
	Unit uint16 `yaml:"unit"`
}

// Measurement describes one measurement. Which fields apply depends on Kind.
type Measurement struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Type   uint32 `yaml:"type"`
	Unit   uint16 `yaml:"unit"`
	Width  string `yaml:"width"`
	Extras Extras `yaml:"extras"`

	// compound
	SubTypes []uint32 `yaml:"sub_types"`
	// complex_compound
	Elements []Element `yaml:"elements"`

	// bit_enum
	ByteCount int    `yaml:"byte_count"`
	Supported uint32 `yaml:"supported"`

	// string_enum
	MaxLength int `yaml:"max_length"`

	// rtsa; scale, offset and period are decimal strings such as "0.02"
	SampleBits int    `yaml:"sample_bits"`
	MaxSamples int    `yaml:"max_samples"`
	Scale      string `yaml:"scale"`
	Offset     string `yaml:"offset"`
	Period     string `yaml:"period"`
}

// Load reads and validates a shape file.
func Load(path string) (*Shape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shape file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a shape. Unknown keys are rejected.
func Parse(data []byte) (*Shape, error) {
	var s Shape
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse shape: empty document")
		}

		return nil, fmt.Errorf("parse shape: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Index returns the position of the measurement called name.
func (s *Shape) Index(name string) (int, bool) {
	for i := range s.Measurements {
		if s.Measurements[i].Name == name {
			return i, true
		}
	}

	return -1, false
}
