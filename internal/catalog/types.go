package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Book is a candidate record as returned by the catalog.
type Book struct {
	Title         string     `json:"title" validate:"required,max=256"`
	TitleLong     string     `json:"title_long,omitempty"`
	ISBN          string     `json:"isbn,omitempty" validate:"max=32"`
	ISBN13        string     `json:"isbn13,omitempty" validate:"max=32"`
	ISBN10        string     `json:"isbn10,omitempty"`
	Authors       Authors    `json:"authors"`
	Publisher     string     `json:"publisher,omitempty"`
	Language      string     `json:"language,omitempty"`
	Pages         int        `json:"pages,omitempty" validate:"gte=0"`
	DatePublished FlexString `json:"date_published,omitempty" validate:"max=256"`
	Synopsis      string     `json:"synopsis,omitempty"`
	Image         string     `json:"image,omitempty" validate:"max=1024"`
	Subjects      []string   `json:"subjects,omitempty"`
	Binding       string     `json:"binding,omitempty"`
	MSRP          FlexString `json:"msrp,omitempty"`
}

// Authors is the author list of a candidate. It is nil when the upstream
// field was absent or not a JSON array, and non-nil (possibly empty) when it
// was an array. Only non-nil lists take part in deduplication.
type Authors []string

func (a *Authors) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*a = nil
		return nil
	}

	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decode authors: %w", err)
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			names = append(names, v)
		case nil:
			names = append(names, "")
		default:
			names = append(names, fmt.Sprint(v))
		}
	}
	*a = names
	return nil
}

// FlexString accepts a JSON string or a bare number. ISBNdb is not
// consistent about dates and prices.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(data)
	return nil
}

type bookResponse struct {
	Book Book `json:"book"`
}

type searchResponse struct {
	Total int    `json:"total"`
	Data  []Book `json:"data"`
}
