// Package memory serves a fixed catalog decoded from YAML.
package memory

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/listing"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/provider"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the YAML document layout.
type Seed struct {
	Categories []provider.RawCategory `yaml:"categories"`
	Courses    []provider.RawCourse   `yaml:"courses"`
}

// Provider is an immutable in-memory catalog.
type Provider struct {
	courses    []domain.Course
	categories []domain.Category
}

var _ provider.Provider = (*Provider)(nil)

// New builds a provider over already normalized data.
func New(courses []domain.Course, categories []domain.Category) *Provider {
	return &Provider{
		courses:    slices.Clone(courses),
		categories: slices.Clone(categories),
	}
}

// Load decodes a seed document from r.
func Load(r io.Reader) (*Provider, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return New(provider.Normalize(seed.Courses), provider.NormalizeCategories(seed.Categories)), nil
}

// LoadFile reads a seed document from path.
func LoadFile(path string) (*Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded seed catalog.
func Default() *Provider {
	p, err := Load(bytes.NewReader(defaultSeed))
	if err != nil {
		panic(fmt.Sprintf("memory: embedded seed is invalid: %v", err))
	}
	return p
}

// GetAllCourses returns a copy of the catalog.
func (p *Provider) GetAllCourses(_ context.Context) ([]domain.Course, error) {
	return slices.Clone(p.courses), nil
}

// SearchCourses matches term against title and description.
func (p *Provider) SearchCourses(_ context.Context, term string) ([]domain.Course, error) {
	return listing.Filter(p.courses, listing.DefaultParams().WithSearch(term)), nil
}

// GetAllCategories returns a copy of the categories.
func (p *Provider) GetAllCategories(_ context.Context) ([]domain.Category, error) {
	return slices.Clone(p.categories), nil
}

// Ping always succeeds.
func (p *Provider) Ping(_ context.Context) error { return nil }
