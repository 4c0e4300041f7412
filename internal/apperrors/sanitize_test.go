package apperrors

import (
	"reflect"
	"testing"
)

func TestSanitizeContextRedactsSensitiveKeys(t *testing.T) {
	input := map[string]interface{}{
		"session_id": "abc",
		"password":   "hunter2",
		"api_key":    "sk-1234",
		"auth_token": "bearer xyz",
		"query":      "how many orders",
	}

	got := SanitizeContext(input)

	if got["session_id"] != "abc" {
		t.Errorf("session_id altered: %v", got["session_id"])
	}
	if got["query"] != "how many orders" {
		t.Errorf("query altered: %v", got["query"])
	}
	for _, key := range []string{"password", "api_key", "auth_token"} {
		if got[key] != "[REDACTED]" {
			t.Errorf("%s = %v, want [REDACTED]", key, got[key])
		}
	}
}

func TestSanitizeContextRecursesNestedStructures(t *testing.T) {
	input := map[string]interface{}{
		"outer": map[string]interface{}{
			"secret": "deep",
			"list": []interface{}{
				map[string]interface{}{"credential": "x", "name": "ok"},
			},
		},
	}

	got := SanitizeContext(input)

	outer := got["outer"].(map[string]interface{})
	if outer["secret"] != "[REDACTED]" {
		t.Errorf("nested secret = %v, want [REDACTED]", outer["secret"])
	}
	inner := outer["list"].([]interface{})[0].(map[string]interface{})
	if inner["credential"] != "[REDACTED]" {
		t.Errorf("list credential = %v, want [REDACTED]", inner["credential"])
	}
	if inner["name"] != "ok" {
		t.Errorf("benign nested value altered: %v", inner["name"])
	}
}

func TestSanitizeContextIdempotent(t *testing.T) {
	input := map[string]interface{}{
		"password": "x",
		"nested":   map[string]interface{}{"token": "y", "plain": "z"},
	}

	once := SanitizeContext(input)
	twice := SanitizeContext(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("sanitization not idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
}

func TestSanitizeContextNil(t *testing.T) {
	if got := SanitizeContext(nil); got != nil {
		t.Errorf("SanitizeContext(nil) = %v, want nil", got)
	}
}
