package repository

import (
	"reflect"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// relationHook reduces an expanded relation object ({"id": 3, ...}) to
// its identifier when the target field is a plain id string.
func relationHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() == reflect.String && from.Kind() == reflect.Map {
		if m, ok := data.(map[string]interface{}); ok {
			if id, ok := m["id"]; ok {
				return cast.ToString(id), nil
			}
		}
	}
	return data, nil
}

// timeHook parses timestamps in whatever format the backend emits
func timeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		return dateparse.ParseAny(v)
	case float64:
		return time.Unix(int64(v), 0), nil
	default:
		return data, nil
	}
}

// decodeInto maps a wire DTO into a UI-facing record using the json
// tags, tolerating numeric/string id drift.
func decodeInto(raw map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(relationHook, timeHook),
	})
	if err != nil {
		return errors.Wrap(err, "build decoder")
	}
	return errors.Wrap(dec.Decode(raw), "decode dto")
}

// put copies a draft field into the wire body when the draft carries it
func put(body map[string]interface{}, draft map[string]string, draftKey, wireKey string) {
	if v, ok := draft[draftKey]; ok {
		body[wireKey] = v
	}
}

// putNumber copies a numeric draft field, sent as a number on the wire
func putNumber(body map[string]interface{}, draft map[string]string, draftKey, wireKey string) {
	if v, ok := draft[draftKey]; ok && v != "" {
		body[wireKey] = cast.ToFloat64(v)
	}
}
