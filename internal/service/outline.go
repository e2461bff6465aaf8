package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"invest_edu_backend/internal/model"
	"invest_edu_backend/internal/util"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	defaultLessonMinutes = 10
	maxLessonMinutes     = 240
)

var outlineValidator = validator.New()

type courseOutline struct {
	Title             string          `json:"title" validate:"required"`
	Description       string          `json:"description"`
	EstimatedDuration flexString      `json:"estimatedDuration"`
	Modules           []moduleOutline `json:"modules" validate:"required,min=1,dive"`
}

type moduleOutline struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	Lessons     []lessonOutline `json:"lessons" validate:"required,min=1,dive"`
}

type lessonOutline struct {
	Title           string  `json:"title" validate:"required"`
	ContentType     string  `json:"contentType"`
	DurationMinutes flexInt `json:"durationMinutes"`
}

// flexString accepts a JSON string or number ("3 hours" or 3).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("estimatedDuration: expected string or number")
	}
	*f = flexString(n.String() + " hours")
	return nil
}

// flexInt accepts 15, 15.0 or "15 minutes".
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return nil
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("durationMinutes: %q is not a number", s)
		}
		*f = flexInt(n)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("durationMinutes: expected number")
	}
	*f = flexInt(int(math.Max(0, math.Min(v, maxLessonMinutes))))
	return nil
}

// stripCodeFence removes a surrounding ```lang ... ``` wrapper if present.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseCourseOutline decodes and validates the generated outline, failing closed.
func parseCourseOutline(raw string) (*courseOutline, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", util.ErrMalformedGenerationOutput)
	}

	var outline courseOutline
	if err := json.Unmarshal([]byte(body), &outline); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformedGenerationOutput, err)
	}

	outline.normalize()

	if err := outlineValidator.Struct(&outline); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformedGenerationOutput, err)
	}
	return &outline, nil
}

func (o *courseOutline) normalize() {
	o.Title = strings.TrimSpace(o.Title)
	o.Description = strings.TrimSpace(o.Description)
	o.EstimatedDuration = flexString(strings.TrimSpace(string(o.EstimatedDuration)))
	for i := range o.Modules {
		m := &o.Modules[i]
		m.Title = strings.TrimSpace(m.Title)
		m.Description = strings.TrimSpace(m.Description)
		for j := range m.Lessons {
			l := &m.Lessons[j]
			l.Title = strings.TrimSpace(l.Title)
			l.ContentType = strings.ToLower(strings.TrimSpace(l.ContentType))
			if !model.ContentType(l.ContentType).Valid() {
				l.ContentType = string(model.ContentArticle)
			}
			if l.DurationMinutes <= 0 {
				l.DurationMinutes = defaultLessonMinutes
			}
			if l.DurationMinutes > maxLessonMinutes {
				l.DurationMinutes = maxLessonMinutes
			}
		}
	}
}

func (o *courseOutline) lessonCount() int {
	n := 0
	for _, m := range o.Modules {
		n += len(m.Lessons)
	}
	return n
}

// withinRequestedShape reports whether module and lesson counts match what the prompt asked for.
func (o *courseOutline) withinRequestedShape() bool {
	if len(o.Modules) < minModules || len(o.Modules) > maxModules {
		return false
	}
	for _, m := range o.Modules {
		if len(m.Lessons) < minLessonsPerModule || len(m.Lessons) > maxLessonsPerModule {
			return false
		}
	}
	return true
}
