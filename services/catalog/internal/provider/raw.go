package provider

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// FlexString decodes a JSON or YAML string or number into its text form.
// Null decodes to "".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
	}
	return nil
}

func (f *FlexString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return &yaml.TypeError{Errors: []string{"id must be a scalar"}}
	}
	if node.Tag == "!!null" {
		*f = ""
		return nil
	}
	*f = FlexString(node.Value)
	return nil
}

// NameRef decodes either a bare name or an object such as the backend's
// {"id":1,"name":"Programming"} or {"firstName":"Sarah","lastName":"Lee"}.
type NameRef struct {
	ID   string
	Name string
}

type nameObject struct {
	ID        FlexString `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	FirstName string     `json:"firstName" yaml:"firstName"`
	LastName  string     `json:"lastName" yaml:"lastName"`
}

func (o nameObject) ref() NameRef {
	name := o.Name
	if name == "" {
		name = strings.TrimSpace(o.FirstName + " " + o.LastName)
	}
	return NameRef{ID: string(o.ID), Name: name}
}

func (r *NameRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = NameRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.Name)
	}
	if len(data) > 0 && data[0] != '{' {
		// A bare id such as "category": 3.
		var id FlexString
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = NameRef{ID: string(id)}
		return nil
	}
	var o nameObject
	if err := json.Unmarshal(data, &o); err != nil {
		return err
	}
	*r = o.ref()
	return nil
}

func (r *NameRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.Name = node.Value
		return nil
	}
	var o nameObject
	if err := node.Decode(&o); err != nil {
		return err
	}
	*r = o.ref()
	return nil
}

// RawCourse is the wire shape of a course as the different sources send
// it, alternate names included. Pointer fields distinguish absent from zero.
type RawCourse struct {
	ID               FlexString `json:"id" yaml:"id"`
	Title            string     `json:"title" yaml:"title"`
	Description      string     `json:"description" yaml:"description"`
	ShortDescription string     `json:"shortDescription" yaml:"shortDescription"`

	Instructor     *NameRef `json:"instructor" yaml:"instructor"`
	InstructorName string   `json:"instructorName" yaml:"instructorName"`

	Price           *float64 `json:"price" yaml:"price"`
	OriginalPrice   *float64 `json:"originalPrice" yaml:"originalPrice"`
	DiscountedPrice *float64 `json:"discountedPrice" yaml:"discountedPrice"`
	IsFree          *bool    `json:"isFree" yaml:"isFree"`

	AverageRating *float64 `json:"averageRating" yaml:"averageRating"`
	Rating        *float64 `json:"rating" yaml:"rating"`
	TotalRatings  *int     `json:"totalRatings" yaml:"totalRatings"`
	ReviewCount   *int     `json:"reviewCount" yaml:"reviewCount"`
	RatingCount   *int     `json:"ratingCount" yaml:"ratingCount"`

	EnrollmentCount *int `json:"enrollmentCount" yaml:"enrollmentCount"`
	Students        *int `json:"students" yaml:"students"`

	ThumbnailImage string `json:"thumbnailImage" yaml:"thumbnailImage"`
	Thumbnail      string `json:"thumbnail" yaml:"thumbnail"`
	ThumbnailURL   string `json:"thumbnailUrl" yaml:"thumbnailUrl"`

	CategoryName string   `json:"categoryName" yaml:"categoryName"`
	Category     *NameRef `json:"category" yaml:"category"`

	Level           string `json:"level" yaml:"level"`
	DifficultyLevel string `json:"difficultyLevel" yaml:"difficultyLevel"`

	Duration     *int `json:"duration" yaml:"duration"`
	Lessons      *int `json:"lessons" yaml:"lessons"`
	TotalLessons *int `json:"totalLessons" yaml:"totalLessons"`
}

// RawCategory is the wire shape of a category.
type RawCategory struct {
	ID          FlexString `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Icon        string     `json:"icon" yaml:"icon"`
	Color       string     `json:"color" yaml:"color"`
}
