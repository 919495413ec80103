package extractor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"msgrelay/pkg/models"
)

const (
	StrategyBatchRecord = "batch_record"
	StrategyBody        = "body"
	StrategyDirect      = "direct"
	StrategyFallback    = "fallback"
)

// ErrNotApplicable is returned by a strategy whose shape is absent from the event.
var ErrNotApplicable = errors.New("event shape not applicable")

// Strategy is one candidate interpretation of a raw event.
type Strategy struct {
	Name    string
	Extract func(raw map[string]interface{}) (models.Envelope, error)
}

// DefaultStrategies returns the chain in precedence order: batch record,
// enveloped body, then direct coercion.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: StrategyBatchRecord, Extract: FromBatchRecord},
		{Name: StrategyBody, Extract: FromBody},
		{Name: StrategyDirect, Extract: FromDirect},
	}
}

// FromBatchRecord reads the first record of the first topic under "records".
// Topics are visited in lexical order; only the first record found is used.
func FromBatchRecord(raw map[string]interface{}) (models.Envelope, error) {
	field, ok := raw["records"]
	if !ok {
		return models.Envelope{}, ErrNotApplicable
	}
	topics, ok := field.(map[string]interface{})
	if !ok {
		return models.Envelope{}, fmt.Errorf("records must be an object, got %T", field)
	}

	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		records, ok := topics[name].([]interface{})
		if !ok {
			continue
		}
		for _, rec := range records {
			record, ok := rec.(map[string]interface{})
			if !ok {
				continue
			}
			value, ok := record["value"].(string)
			if !ok {
				return models.Envelope{}, fmt.Errorf("record value in topic %q must be a string, got %T", name, record["value"])
			}
			return decodeRecordValue(value)
		}
	}

	return models.Envelope{}, errors.New("records contain no record objects")
}

// decodeRecordValue accepts plain JSON or base64 encoded JSON, the latter
// being how managed Kafka triggers deliver record values.
func decodeRecordValue(value string) (models.Envelope, error) {
	env, err := DecodeEnvelope([]byte(value))
	if err == nil {
		return env, nil
	}
	decoded, b64Err := base64.StdEncoding.DecodeString(value)
	if b64Err != nil {
		return models.Envelope{}, err
	}
	return DecodeEnvelope(decoded)
}

// FromBody decodes the serialized envelope held in the "body" field.
func FromBody(raw map[string]interface{}) (models.Envelope, error) {
	field, ok := raw["body"]
	if !ok {
		return models.Envelope{}, ErrNotApplicable
	}
	body, ok := field.(string)
	if !ok {
		return models.Envelope{}, fmt.Errorf("body must be a string, got %T", field)
	}
	return DecodeEnvelope([]byte(body))
}

// FromDirect coerces the event's own fields into an envelope. Scalars are
// accepted for the text fields; unknown fields and non-scalar values are errors.
func FromDirect(raw map[string]interface{}) (models.Envelope, error) {
	env, err := coerce(raw)
	if err != nil {
		return models.Envelope{}, fmt.Errorf("failed to coerce event: %w", err)
	}
	return env, nil
}

func coerce(fields map[string]interface{}) (models.Envelope, error) {
	var env models.Envelope
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &env,
		TagName:     "mapstructure",
		ErrorUnused: true,
		DecodeHook:  mapstructure.ComposeDecodeHookFunc(timestampHook, scalarToStringHook),
	})
	if err != nil {
		return models.Envelope{}, err
	}
	if err := decoder.Decode(fields); err != nil {
		return models.Envelope{}, err
	}
	return env, nil
}

// scalarToStringHook renders numbers and booleans bound for a string field,
// e.g. a numeric id.
func scalarToStringHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return data, nil
	}
}

var timestampType = reflect.TypeOf(models.Timestamp{})

func timestampHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != timestampType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		if v == "" {
			return models.Timestamp{}, nil
		}
		return models.ParseTimestamp(v)
	case time.Time:
		return models.Timestamp{Time: v}, nil
	case models.Timestamp:
		return v, nil
	default:
		return nil, fmt.Errorf("cannot use %s as timestamp", from)
	}
}

// DecodeEnvelope decodes the serialized envelope wire form with the same
// field rules as FromDirect.
func DecodeEnvelope(data []byte) (models.Envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return models.Envelope{}, errors.New("serialized envelope must be a JSON object")
	}

	var fields map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return models.Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if dec.More() {
		return models.Envelope{}, errors.New("trailing data after envelope")
	}

	env, err := coerce(fields)
	if err != nil {
		return models.Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	return env, nil
}

// Fallback synthesizes a degraded envelope from any event. It does not fail.
func Fallback(raw map[string]interface{}) models.Envelope {
	id := models.UnknownID
	if v, ok := raw["id"]; ok && v != nil {
		id = fmt.Sprint(v)
	}
	return models.Envelope{
		ID:        id,
		Content:   fmt.Sprintf("%v", raw),
		Timestamp: models.Now(),
	}
}
