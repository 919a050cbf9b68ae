package profile

import (
	"fmt"
	"regexp"

	"git.home.luguber.info/inful/linkbio/internal/foundation"
	"git.home.luguber.info/inful/linkbio/internal/store"
)

// Settings is the editable part of a profile.
type Settings struct {
	Image           *string `json:"image"`
	Theme           *string `json:"theme"`
	Bio             *string `json:"bio"`
	BackgroundColor *string `json:"backgroundColor"`
	BackgroundImage *string `json:"backgroundImage"`
}

// SettingsOf extracts the settings of u.
func SettingsOf(u *store.User) *Settings {
	return &Settings{
		Image:           u.Image,
		Theme:           u.Theme,
		Bio:             u.Bio,
		BackgroundColor: u.BackgroundColor,
		BackgroundImage: u.BackgroundImage,
	}
}

// BackgroundColorPattern accepts #RRGGBB, rgb() and rgba().
var BackgroundColorPattern = regexp.MustCompile(`^(#[0-9A-Fa-f]{6}|rgba?\(\s*\d+\s*,\s*\d+\s*,\s*\d+\s*(?:,\s*[\d.]+\s*)?\))$`)

type settingsField struct {
	key      string
	validate foundation.Validator[string]
	assign   func(*store.ProfileUpdate, foundation.Field[string])
}

var settingsFields = []settingsField{
	{"image", foundation.URL("image"), func(u *store.ProfileUpdate, f foundation.Field[string]) { u.Image = f }},
	{"theme", nil, func(u *store.ProfileUpdate, f foundation.Field[string]) { u.Theme = f }},
	{"bio", foundation.MaxLength("bio", 500), func(u *store.ProfileUpdate, f foundation.Field[string]) { u.Bio = f }},
	{"backgroundColor", foundation.Matches("backgroundColor", BackgroundColorPattern, "Invalid"), func(u *store.ProfileUpdate, f foundation.Field[string]) { u.BackgroundColor = f }},
	{"backgroundImage", foundation.URL("backgroundImage"), func(u *store.ProfileUpdate, f foundation.Field[string]) { u.BackgroundImage = f }},
}

// ParseSettingsPatch turns a raw JSON object into a profile update. Empty
// strings and nulls clear a field, absent keys are left alone and unknown keys
// are ignored.
func ParseSettingsPatch(raw map[string]any) (store.ProfileUpdate, foundation.ValidationResult) {
	var upd store.ProfileUpdate
	res := foundation.Valid()
	for _, f := range settingsFields {
		v, present := raw[f.key]
		if !present {
			continue
		}
		switch val := v.(type) {
		case nil:
			f.assign(&upd, foundation.Null[string]())
		case string:
			if val == "" {
				f.assign(&upd, foundation.Null[string]())
				continue
			}
			if f.validate != nil {
				if r := f.validate(val); !r.Valid {
					res = res.Combine(r)
					continue
				}
			}
			f.assign(&upd, foundation.Set(val))
		default:
			res = res.Combine(foundation.Invalid(foundation.NewValidationError(
				f.key, "invalid_type", fmt.Sprintf("Expected string, received %s", jsonTypeName(v)))))
		}
	}
	return upd, res
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
