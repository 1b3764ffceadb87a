// Package format turns raw index hits into client-facing tool records.
package format

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/taaft-ai/toolsearch/pkg/models"
)

// Formatter extracts the whitelisted fields of raw index hits.
type Formatter struct {
	logger *slog.Logger
}

// New creates a Formatter. A nil logger selects the default logger.
func New(logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Formatter{logger: logger.With("component", "formatter")}
}

// Hits formats every raw hit. A hit that cannot be formatted is logged and
// replaced by a record holding only its identifying fields, so one bad hit
// never fails the page. The result is never nil.
func (f *Formatter) Hits(raw []map[string]any) []models.ToolRecord {
	out := make([]models.ToolRecord, 0, len(raw))
	for i, hit := range raw {
		rec, err := Hit(hit)
		if err != nil {
			f.logger.Warn("format hit", "index", i, "id", identity(hit), "error", err)
			rec = minimal(hit)
		}
		out = append(out, rec)
	}
	return out
}

// Hit formats a single raw hit.
func Hit(hit map[string]any) (models.ToolRecord, error) {
	var rec models.ToolRecord
	if hit == nil {
		return rec, fmt.Errorf("empty hit")
	}

	var err error
	if rec.ID = identity(hit); rec.ID == "" {
		return rec, fmt.Errorf("hit has no id")
	}
	fields := []struct {
		key string
		dst *string
	}{
		{"unique_id", &rec.UniqueID},
		{"slug", &rec.Slug},
		{"name", &rec.Name},
		{"description", &rec.Description},
		{"link", &rec.Link},
		{"logo_url", &rec.LogoURL},
		{"pricing", &rec.Pricing},
	}
	for _, fld := range fields {
		if *fld.dst, err = stringField(hit, fld.key); err != nil {
			return rec, err
		}
	}
	if rec.LogoURL == "" {
		if rec.LogoURL, err = stringField(hit, "logo"); err != nil {
			return rec, err
		}
	}
	if rec.Pricing == "" {
		if rec.Pricing, err = stringField(hit, "pricing_type"); err != nil {
			return rec, err
		}
	}
	if rec.Categories, err = listField(hit, "categories"); err != nil {
		return rec, err
	}
	if rec.Features, err = listField(hit, "features"); err != nil {
		return rec, err
	}
	if rec.Rating, err = ratingField(hit, "rating"); err != nil {
		return rec, err
	}
	return rec, nil
}

func minimal(hit map[string]any) models.ToolRecord {
	rec := models.ToolRecord{ID: identity(hit)}
	if name, ok := hit["name"].(string); ok {
		rec.Name = name
	}
	return rec
}

// identity returns the first usable identifier of hit.
func identity(hit map[string]any) string {
	for _, key := range []string{"id", "objectID", "_id"} {
		switch v := hit[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

func stringField(hit map[string]any, key string) (string, error) {
	switch v := hit[key].(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case float64, int, int64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("field %s: unexpected type %T", key, v)
	}
}

// listField accepts a list of strings, a list of objects carrying "name", or
// a single comma-separated string.
func listField(hit map[string]any, key string) ([]string, error) {
	switch v := hit[key].(type) {
	case nil:
		return nil, nil
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []string:
		return compact(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case map[string]any:
				name, ok := it["name"].(string)
				if !ok {
					return nil, fmt.Errorf("field %s: object without name", key)
				}
				out = append(out, name)
			case nil:
			default:
				return nil, fmt.Errorf("field %s: unexpected item type %T", key, it)
			}
		}
		return compact(out), nil
	default:
		return nil, fmt.Errorf("field %s: unexpected type %T", key, v)
	}
}

func ratingField(hit map[string]any, key string) (*float64, error) {
	var r float64
	switch v := hit[key].(type) {
	case nil:
		return nil, nil
	case float64:
		r = v
	case int:
		r = float64(v)
	case int64:
		r = float64(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		r = parsed
	default:
		return nil, fmt.Errorf("field %s: unexpected type %T", key, v)
	}
	return &r, nil
}

func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
